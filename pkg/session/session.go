package session

import (
	"context"
	"fmt"
	"strings"

	"mymovies/pkg/auth"
)

// Session is a connection to the video service that can log in and open
// the library listing. A session is used by one run and closed at its end.
type Session interface {
	// Authenticate submits the login form with cred
	Authenticate(ctx context.Context, cred auth.Credential) error
	// Navigate loads url and returns the page to collect from
	Navigate(ctx context.Context, url string) (Page, error)
	// Close releases the session's resources
	Close() error
}

// Page is a loaded library listing
type Page interface {
	// CollectPass returns the titles currently rendered on the page
	CollectPass(ctx context.Context) ([]string, error)
	// Advance asks the page for more content and waits for it to settle
	Advance(ctx context.Context) error
}

// FieldSelector turns a form field name into a CSS selector. Values that
// already look like selectors are returned unchanged. The id alternative is
// only added when the name is a valid CSS identifier.
func FieldSelector(field string) string {
	if strings.ContainsAny(field, "#.[]:> ") {
		return field
	}
	byName := fmt.Sprintf(`input[name=%q]`, field)
	if !isIdent(field) {
		return byName
	}
	return byName + ", #" + field
}

// isIdent reports whether s can be used unescaped as a CSS identifier
func isIdent(s string) bool {
	rest := strings.TrimPrefix(s, "-")
	if rest == "" {
		return false
	}
	for i, r := range rest {
		letter := r == '_' || r >= 0x80 || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
		switch {
		case letter:
		case i > 0 && (r == '-' || r >= '0' && r <= '9'):
		case i == 0 && r == '-' && rest != s:
		default:
			return false
		}
	}
	return true
}

// titleNewlines folds CR and CRLF line breaks into LF
var titleNewlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// CleanTitles trims surrounding whitespace, normalizes line breaks to LF and
// drops empty titles
func CleanTitles(raw []string) []string {
	titles := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(titleNewlines.Replace(t)); t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}
