package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		level  string
		logger string
		msg    string
		fields string
		hasTS  bool
	}{
		{
			name:   "zap json line",
			input:  `{"level":"info","ts":"2025-10-08T21:01:05.123Z","logger":"mutate","msg":"product created","service":"shelf","product_id":"p1","sku":"LAMP-1"}`,
			level:  "info",
			logger: "mutate",
			msg:    "product created",
			fields: "product_id=p1 sku=LAMP-1",
			hasTS:  true,
		},
		{
			name:   "offset timestamp",
			input:  `{"level":"warn","ts":"2025-10-08T23:01:05.000+0200","msg":"fetch failed","error":"connection refused"}`,
			level:  "warn",
			msg:    "fetch failed",
			fields: "error=connection refused",
			hasTS:  true,
		},
		{
			name:  "plain text",
			input: "panic: something broke",
			msg:   "panic: something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Parse(tt.input)
			if e.Level != tt.level || e.Logger != tt.logger || e.Msg != tt.msg {
				t.Fatalf("Parse() = %+v", e)
			}
			if got := e.FieldString(); got != tt.fields {
				t.Fatalf("FieldString() = %q, want %q", got, tt.fields)
			}
			if e.Time.IsZero() == tt.hasTS {
				t.Fatalf("Time = %v, hasTS %v", e.Time, tt.hasTS)
			}
			if e.Raw != tt.input {
				t.Fatalf("Raw = %q, want input", e.Raw)
			}
		})
	}

	e := Parse(`{"level":"info","ts":"2025-10-08T23:01:05.000+0200","msg":"x"}`)
	if want := time.Date(2025, 10, 8, 21, 1, 5, 0, time.UTC); !e.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", e.Time, want)
	}
}

func TestReadEntries_SkipsBlankLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "shelf.log")
	content := `{"level":"info","msg":"one"}` + "\n\n" + `{"level":"error","msg":"two"}` + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := ReadEntries(logPath, 0)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Msg != "one" || entries[1].Level != "error" {
		t.Fatalf("entries = %+v", entries)
	}
}
