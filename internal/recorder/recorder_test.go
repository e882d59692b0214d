package recorder

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/counter-logger/internal/logic"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return rows
}

func interval(i int) logic.Interval {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local).Add(time.Duration(i-1) * time.Minute)
	return logic.Interval{
		Index:      i,
		Start:      start,
		End:        start.Add(time.Minute),
		Events:     int64(10 * i),
		Rate:       float64(10*i) / 60,
		Cumulative: int64(5 * i * (i + 1)),
	}
}

func TestOpenWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Path() != path {
		t.Errorf("Path: got %q", r.Path())
	}

	rows := readRows(t, path)
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
	if strings.Join(rows[0], "|") != strings.Join(Header, "|") {
		t.Errorf("header: got %v, want %v", rows[0], Header)
	}
}

func TestAppendIsDurableAfterReturn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for n := 1; n <= 5; n++ {
		if err := r.Append(interval(n)); err != nil {
			t.Fatalf("Append %d: %v", n, err)
		}

		// Re-read without closing, as a crash right after Append would leave it.
		rows := readRows(t, path)
		if len(rows) != n+1 {
			t.Fatalf("after append %d: expected %d data rows, got %d", n, n, len(rows)-1)
		}
		if rows[0][0] != "Interval" {
			t.Errorf("after append %d: header missing, first row %v", n, rows[0])
		}
		if rows[n][0] != strconv.Itoa(n) {
			t.Errorf("after append %d: last row index %q", n, rows[n][0])
		}
	}
	if r.Rows() != 5 {
		t.Errorf("Rows: got %d, want 5", r.Rows())
	}
}

func TestReopenDoesNotDuplicateHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Append(interval(1))
	r.Close()

	r, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	r.Append(interval(2))
	r.Close()

	rows := readRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d rows", len(rows))
	}
	headers := 0
	for _, row := range rows {
		if row[0] == "Interval" {
			headers++
		}
	}
	if headers != 1 {
		t.Errorf("expected exactly one header, got %d", headers)
	}
}

func TestRowFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	start := time.Date(2026, 3, 4, 9, 5, 7, 0, time.Local)
	iv := logic.Interval{
		Index:      1,
		Start:      start,
		End:        start.Add(65 * time.Second),
		Events:     20,
		Rate:       20.0 / 65.0,
		Cumulative: 20,
	}
	if err := r.Append(iv); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rows := readRows(t, path)
	want := []string{"1", "2026-03-04 09:05:07", "2026-03-04 09:06:12", "20", "0.308", "20"}
	if strings.Join(rows[1], "|") != strings.Join(want, "|") {
		t.Errorf("row: got %v, want %v", rows[1], want)
	}

	got, err := ParseTime(rows[1][2])
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if !got.Equal(iv.End) {
		t.Errorf("ParseTime round trip: got %v, want %v", got, iv.End)
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{0, "0.000"},
		{1, "1.000"},
		{20.0 / 65.0, "0.308"},
		{2.0005, "2.001"},
		{0.0004, "0.000"},
		{1234.56789, "1234.568"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.rate); got != tt.want {
			t.Errorf("FormatRate(%v): got %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "events.csv"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestAppendAfterClose(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "events.csv"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Close()

	if err := r.Append(interval(1)); err == nil {
		t.Error("expected error appending to closed recorder")
	}
}

func TestOpenFailure(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "events.csv"))
	if err == nil {
		t.Error("expected error opening file in missing directory")
	}
}

func TestFakeRecorder(t *testing.T) {
	f := NewFakeRecorder()
	if err := f.Append(interval(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Intervals) != 1 || f.Intervals[0].Index != 1 {
		t.Errorf("unexpected intervals: %+v", f.Intervals)
	}

	f.AppendError = os.ErrClosed
	if err := f.Append(interval(2)); err != os.ErrClosed {
		t.Errorf("expected AppendError, got %v", err)
	}
	if len(f.Intervals) != 1 {
		t.Errorf("failed append should not be recorded")
	}

	f.Close()
	if !f.Closed {
		t.Error("expected Closed after Close()")
	}
}
