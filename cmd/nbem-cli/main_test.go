package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nbem "github.com/jamesainslie/go-nbem"
	"github.com/jamesainslie/go-nbem/corpus"
	"github.com/jamesainslie/go-nbem/internal/store"
)

const trainTSV = `a1	A	apple banana cherry
a2	A	banana cherry date
a3	A	apple date elder
b1	B	dog eagle fox
b2	B	eagle fox goat
b3	B	dog goat hound
u1		apple elder fig
u2	?	hound iguana goat
`

const testTSV = `t1	A	cherry apple
t2	B	fox hound
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRun_Report(t *testing.T) {
	dir := t.TempDir()
	train := writeFile(t, dir, "train.tsv", trainTSV)
	test := writeFile(t, dir, "test.tsv", testTSV)

	out, _, err := execute(t, "--rounds", "3", "--epsilon", "0", train, test)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "round=1 correct=2 total=2 accuracy=1.000000", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "round=3 "))
	assert.Equal(t, "final state=max-rounds rounds=3 correct=2 total=2 accuracy=1.000000", lines[3])
}

func TestRun_MissingClasses(t *testing.T) {
	dir := t.TempDir()
	train := writeFile(t, dir, "train.tsv", trainTSV)
	test := writeFile(t, dir, "test.tsv", testTSV)

	out, stderr, err := execute(t, "--rounds", "1", "--classes", "A,B,C", train, test)
	require.NoError(t, err)
	assert.Contains(t, out, "missing classes: C")
	assert.Contains(t, stderr, "configured class has no labeled training records")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	train := writeFile(t, dir, "train.tsv", trainTSV)
	test := writeFile(t, dir, "test.tsv", testTSV)
	bad := writeFile(t, dir, "bad.tsv", "x1\tA\n")
	empty := writeFile(t, dir, "empty.tsv", "")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing train", []string{filepath.Join(dir, "nope.tsv"), test}, os.ErrNotExist},
		{"malformed test", []string{train, bad}, corpus.ErrFormat},
		{"empty test", []string{train, empty}, nbem.ErrEmptyCorpus},
		{"no labeled training", []string{empty, test}, nbem.ErrNoLabeledRecords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRun_WrongArgCount(t *testing.T) {
	_, _, err := execute(t, "only-one.tsv")
	assert.Error(t, err)
}

func TestRun_HistoryAndDump(t *testing.T) {
	dir := t.TempDir()
	train := writeFile(t, dir, "train.tsv", trainTSV)
	test := writeFile(t, dir, "test.tsv", testTSV)
	dbPath := filepath.Join(dir, "history.db")
	dumpPath := filepath.Join(dir, "model.json")

	_, _, err := execute(t, "--rounds", "2", "--epsilon", "0", "--history", dbPath, "--dump-model", dumpPath, "--fold", "--stopwords", train, test)
	require.NoError(t, err)

	hist, err := store.Open(dbPath)
	require.NoError(t, err)
	defer func() { _ = hist.Close() }()

	run, err := hist.GetRun(1)
	require.NoError(t, err)
	assert.Equal(t, "max-rounds", run.State)
	assert.Contains(t, run.Params, "fold=true")

	rounds, err := hist.ListRounds(1)
	require.NoError(t, err)
	assert.Len(t, rounds, 2)

	snap, err := hist.LatestSnapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Round)
	fromHistory, err := nbem.UnmarshalModel(snap.Data)
	require.NoError(t, err)

	data, err := os.ReadFile(dumpPath)
	require.NoError(t, err)
	fromDump, err := nbem.UnmarshalModelJSON(data)
	require.NoError(t, err)
	assert.Equal(t, fromHistory.Classes(), fromDump.Classes())
	assert.Equal(t, fromHistory.Likelihood("A", "apple"), fromDump.Likelihood("A", "apple"))
}

func TestReportError(t *testing.T) {
	var buf bytes.Buffer
	reportError(&buf, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}
