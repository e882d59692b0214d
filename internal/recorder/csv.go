package recorder

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sweeney/counter-logger/internal/logic"
)

// CSVRecorder appends intervals to a CSV file, syncing after every row.
type CSVRecorder struct {
	path string
	file *os.File
	w    *csv.Writer
	rows int
}

// Open creates path if absent and opens it for appending. The header row is
// written only when the file is empty, so restarting against an existing log
// continues it. Interval indices start again at 1 for each run, so a file's
// row count only matches one run's intervals when the file was new.
func Open(path string) (*CSVRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	r := &CSVRecorder{
		path: path,
		file: f,
		w:    csv.NewWriter(f),
	}

	if info.Size() == 0 {
		if err := r.write(Header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return r, nil
}

// Path returns the file path.
func (r *CSVRecorder) Path() string {
	return r.path
}

// Rows returns the number of interval rows appended by this recorder.
func (r *CSVRecorder) Rows() int {
	return r.rows
}

// Append writes one interval row and forces it to stable storage.
func (r *CSVRecorder) Append(iv logic.Interval) error {
	if r.file == nil {
		return fmt.Errorf("append to %s: recorder closed", r.path)
	}
	if err := r.write(FormatRow(iv)); err != nil {
		return fmt.Errorf("append interval %d: %w", iv.Index, err)
	}
	r.rows++
	return nil
}

func (r *CSVRecorder) write(record []string) error {
	if err := r.w.Write(record); err != nil {
		return err
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return err
	}
	return r.file.Sync()
}

// Close flushes and closes the file.
func (r *CSVRecorder) Close() error {
	if r.file == nil {
		return nil
	}
	r.w.Flush()
	werr := r.w.Error()
	cerr := r.file.Close()
	r.file = nil
	if werr != nil {
		return fmt.Errorf("flush %s: %w", r.path, werr)
	}
	if cerr != nil {
		return fmt.Errorf("close %s: %w", r.path, cerr)
	}
	return nil
}
