// Package storage persists the finished title list.
//
// Output is a single-column CSV file in the spreadsheet dialect: comma
// separated, CRLF line endings, fields quoted only when they contain a comma,
// quote or line break. There is no header row. Every run replaces the file.
//
// Writes are atomic. Rows go to a temporary file next to the target and the
// file is renamed into place once fully written, so a failed run never leaves
// a truncated CSV behind.
//
// Usage:
//
//	if err := storage.WriteTitles("movies.csv", titles); err != nil {
//	    return err
//	}
//
//	titles, err := storage.ReadTitles("movies.csv")
package storage
