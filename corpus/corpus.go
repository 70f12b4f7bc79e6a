// Package corpus reads tab-separated classification records.
//
// Each line is
//
//	id<TAB>label<TAB>text[<TAB>text...]
//
// An empty label, or the sentinel "?", marks the record as unlabeled.
package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// UnlabeledSentinel is accepted in the label field as an explicit
// "no label" marker, equivalent to an empty field.
const UnlabeledSentinel = "?"

// minFields is id, label and at least one text field.
const minFields = 3

// maxLineSize bounds a single record line.
const maxLineSize = 16 * 1024 * 1024

// ErrFormat indicates a malformed record line.
var ErrFormat = errors.New("corpus: malformed record")

// LineError describes a malformed line. It wraps ErrFormat.
type LineError struct {
	Line   int
	Fields int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%v: line %d: %s (got %d fields)", ErrFormat, e.Line, e.Reason, e.Fields)
}

func (e *LineError) Unwrap() error {
	return ErrFormat
}

// Record is one parsed corpus line. Fields keeps the raw text fields.
type Record struct {
	ID     string
	Label  string
	Fields []string
	Line   int // 1-based line number in the source
}

// Labeled reports whether the record carries a class label.
func (r Record) Labeled() bool {
	return r.Label != ""
}

// Text joins the text fields with single spaces.
func (r Record) Text() string {
	return strings.Join(r.Fields, " ")
}

// Read parses every line of r. Empty lines are skipped; any other line
// with fewer than three fields or an empty id aborts the read with a
// *LineError. Record order follows line order.
func Read(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		rec, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan corpus: %w", err)
	}
	return records, nil
}

// ReadFile opens and parses the corpus at path.
func ReadFile(path string) (records []Record, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close corpus: %w", cerr)
		}
	}()

	records, err = Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func parseLine(line string, lineNo int) (Record, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < minFields {
		return Record{}, &LineError{
			Line:   lineNo,
			Fields: len(parts),
			Reason: "expected id, label and at least one text field",
		}
	}
	if parts[0] == "" {
		return Record{}, &LineError{Line: lineNo, Fields: len(parts), Reason: "empty id"}
	}

	label := parts[1]
	if label == UnlabeledSentinel {
		label = ""
	}

	return Record{
		ID:     parts[0],
		Label:  label,
		Fields: parts[2:],
		Line:   lineNo,
	}, nil
}

// Split partitions records into labeled and unlabeled, preserving order.
func Split(records []Record) (labeled, unlabeled []Record) {
	labeled = lo.Filter(records, func(r Record, _ int) bool { return r.Labeled() })
	unlabeled = lo.Filter(records, func(r Record, _ int) bool { return !r.Labeled() })
	return labeled, unlabeled
}

// Labels returns the distinct labels present in records, sorted.
func Labels(records []Record) []string {
	labels := lo.Uniq(lo.FilterMap(records, func(r Record, _ int) (string, bool) {
		return r.Label, r.Labeled()
	}))
	slices.Sort(labels)
	return labels
}
