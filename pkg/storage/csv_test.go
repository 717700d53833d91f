package storage

import (
	"os"
	"path/filepath"
	"testing"

	"mymovies/pkg/errors"
)

func TestWriteTitlesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")

	titles := []string{
		"Amélie",
		"Crouching Tiger, Hidden Dragon",
		`The "Burbs"`,
		"Up",
	}

	if err := WriteTitles(path, titles); err != nil {
		t.Fatalf("WriteTitles failed: %v", err)
	}

	got, err := ReadTitles(path)
	if err != nil {
		t.Fatalf("ReadTitles failed: %v", err)
	}

	if len(got) != len(titles) {
		t.Fatalf("Expected %d rows, got %d", len(titles), len(got))
	}
	for i := range titles {
		if got[i] != titles[i] {
			t.Errorf("Row %d: expected %q, got %q", i, titles[i], got[i])
		}
	}
}

func TestWriteTitlesMultiline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")

	titles := []string{"Dr. Strangelove\nor: How I Learned", "Up"}
	if err := WriteTitles(path, titles); err != nil {
		t.Fatalf("WriteTitles failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if want := "\"Dr. Strangelove\r\nor: How I Learned\"\r\nUp\r\n"; string(raw) != want {
		t.Errorf("Expected %q, got %q", want, string(raw))
	}

	got, err := ReadTitles(path)
	if err != nil {
		t.Fatalf("ReadTitles failed: %v", err)
	}
	if len(got) != 2 || got[0] != titles[0] || got[1] != titles[1] {
		t.Errorf("Expected %q, got %q", titles, got)
	}
}

func TestWriteTitlesFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")

	if err := WriteTitles(path, []string{"Inception", "Up, Again"}); err != nil {
		t.Fatalf("WriteTitles failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}

	expected := "Inception\r\n\"Up, Again\"\r\n"
	if string(content) != expected {
		t.Errorf("Expected %q, got %q", expected, string(content))
	}
}

func TestWriteTitlesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")

	if err := WriteTitles(path, nil); err != nil {
		t.Fatalf("WriteTitles failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Expected file to exist: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty file, got %d bytes", info.Size())
	}

	got, err := ReadTitles(path)
	if err != nil {
		t.Fatalf("ReadTitles failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected zero rows, got %d", len(got))
	}
}

func TestWriteTitlesOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")

	if err := WriteTitles(path, []string{"Old", "Older", "Oldest"}); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := WriteTitles(path, []string{"New"}); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	got, err := ReadTitles(path)
	if err != nil {
		t.Fatalf("ReadTitles failed: %v", err)
	}
	if len(got) != 1 || got[0] != "New" {
		t.Errorf("Expected [New], got %v", got)
	}
}

func TestWriteTitlesLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movies.csv")

	if err := WriteTitles(path, []string{"Up"}); err != nil {
		t.Fatalf("WriteTitles failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the CSV in the directory, found %d entries", len(entries))
	}
}

func TestWriteTitlesFailure(t *testing.T) {
	dir := t.TempDir()

	// the output path is an existing directory, so the rename fails
	path := filepath.Join(dir, "movies.csv")
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "keep"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	err := WriteTitles(path, []string{"Up"})
	if err == nil {
		t.Fatal("Expected an error writing over a directory")
	}
	if !errors.Is(err, errors.ErrorTypePersistence) {
		t.Errorf("Expected persistence error, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected temporary file to be cleaned up, found %d entries", len(entries))
	}
}

func TestReadTitlesMissing(t *testing.T) {
	if _, err := ReadTitles(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Error("Expected error for missing file")
	}
}
