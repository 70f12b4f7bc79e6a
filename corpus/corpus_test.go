package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Record
		wantErr bool
		errLine int
	}{
		{
			name:  "labeled and unlabeled",
			input: "1\tdisk\tdisk full on sda\n2\t\tnetwork unreachable\n3\t?\tretry later\n",
			want: []Record{
				{ID: "1", Label: "disk", Fields: []string{"disk full on sda"}, Line: 1},
				{ID: "2", Label: "", Fields: []string{"network unreachable"}, Line: 2},
				{ID: "3", Label: "", Fields: []string{"retry later"}, Line: 3},
			},
		},
		{
			name:  "multiple text fields",
			input: "7\tauth\tlogin failed\tuser root\n",
			want: []Record{
				{ID: "7", Label: "auth", Fields: []string{"login failed", "user root"}, Line: 1},
			},
		},
		{
			name:  "crlf and blank lines",
			input: "1\ta\tx\r\n\r\n\n2\tb\ty\r\n",
			want: []Record{
				{ID: "1", Label: "a", Fields: []string{"x"}, Line: 1},
				{ID: "2", Label: "b", Fields: []string{"y"}, Line: 4},
			},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:    "too few fields",
			input:   "1\ta\tok\n2\tb\n",
			wantErr: true,
			errLine: 2,
		},
		{
			name:    "empty id",
			input:   "\ta\ttext\n",
			wantErr: true,
			errLine: 1,
		},
		{
			name:    "tab-only line",
			input:   "1\tA\tapple\n\t\t\n2\tB\tdog\n",
			wantErr: true,
			errLine: 2,
		},
		{
			name:    "whitespace-only line",
			input:   "1\tA\tapple\n   \n",
			wantErr: true,
			errLine: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrFormat) {
					t.Errorf("expected ErrFormat, got %v", err)
				}
				var lineErr *LineError
				if !errors.As(err, &lineErr) {
					t.Fatalf("expected *LineError, got %T", err)
				}
				if lineErr.Line != tt.errLine {
					t.Errorf("error line = %d, want %d", lineErr.Line, tt.errLine)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Read() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRecord_Text(t *testing.T) {
	r := Record{Fields: []string{"login failed", "user root"}}
	if got := r.Text(); got != "login failed user root" {
		t.Errorf("Text() = %q", got)
	}
	if r.Labeled() {
		t.Error("record without label reported as labeled")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.tsv")
	content := "1\tdisk\tdisk full\n2\tnet\tlink down\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	records, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.tsv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestReadFile_MalformedIncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tsv")
	if err := os.WriteFile(path, []byte("only-one-field\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadFile(path)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad.tsv") {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestSplitAndLabels(t *testing.T) {
	records := []Record{
		{ID: "1", Label: "net"},
		{ID: "2"},
		{ID: "3", Label: "disk"},
		{ID: "4", Label: "net"},
	}

	labeled, unlabeled := Split(records)
	if len(labeled) != 3 || len(unlabeled) != 1 {
		t.Fatalf("Split() = %d labeled, %d unlabeled", len(labeled), len(unlabeled))
	}
	if labeled[0].ID != "1" || labeled[2].ID != "4" {
		t.Error("Split() did not preserve order")
	}

	if got := Labels(records); !reflect.DeepEqual(got, []string{"disk", "net"}) {
		t.Errorf("Labels() = %q", got)
	}
}
