package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"mymovies/pkg/errors"
)

// CSVWriter writes a title list to a single-column CSV file. The file has no
// header, uses CRLF line endings and quotes only the fields that need it.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a writer for path
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the output file path
func (w *CSVWriter) Path() string {
	return w.path
}

// Write replaces the file at the writer's path with one row per title.
// The rows are written to a temporary file in the same directory and renamed
// into place, so a failed write leaves no file at the path.
//
// Line breaks inside a title are written as CRLF and read back as LF. A bare
// CR does not survive the round trip; session.CleanTitles folds it to LF.
func (w *CSVWriter) Write(titles []string) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrorTypePersistence, "persist", err, "failed to create output directory")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(errors.ErrorTypePersistence, "persist", err, "failed to create temporary file")
	}
	tempFile := tmp.Name()

	err = encodeTitles(tmp, titles)
	closeErr := tmp.Close()

	if err != nil {
		os.Remove(tempFile)
		return errors.Wrap(errors.ErrorTypePersistence, "persist", err, "failed to write titles")
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return errors.Wrap(errors.ErrorTypePersistence, "persist", closeErr, "failed to close file")
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return errors.Wrap(errors.ErrorTypePersistence, "persist", err, "failed to set file mode")
	}

	if err := os.Rename(tempFile, w.path); err != nil {
		os.Remove(tempFile)
		return errors.Wrap(errors.ErrorTypePersistence, "persist", err, "failed to rename temporary file")
	}

	return nil
}

func encodeTitles(out io.Writer, titles []string) error {
	cw := csv.NewWriter(out)
	cw.UseCRLF = true
	for _, title := range titles {
		if err := cw.Write([]string{title}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTitles writes titles to path, one per row. See CSVWriter.Write.
func WriteTitles(path string, titles []string) error {
	return NewCSVWriter(path).Write(titles)
}

// ReadTitles reads a file written by WriteTitles back into a title list
func ReadTitles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 1

	titles := []string{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		titles = append(titles, record[0])
	}

	return titles, nil
}
