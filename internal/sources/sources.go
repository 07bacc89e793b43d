// Package sources manages the configured source list: parsing and
// serializing the line-delimited text format and keeping source identity
// stable across reloads.
package sources

import (
	"fmt"
	"strings"

	"github.com/alexnodeland/statusbar/internal/domain"
)

// separator splits the display name from the URL in a source line.
const separator = "|"

// Entry is one parsed source line before identity is assigned.
type Entry struct {
	Name string
	URL  string
}

// Parse reads line-delimited `Name | URL` text. Blank lines and lines
// starting with # are ignored. Lines whose URL does not carry an http(s)
// scheme are discarded; malformed lines are never fatal.
func Parse(text string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, url, ok := strings.Cut(line, separator)
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		url = strings.TrimSpace(url)
		if name == "" || !hasHTTPScheme(url) {
			continue
		}

		entries = append(entries, Entry{
			Name: name,
			URL:  strings.TrimRight(url, "/"),
		})
	}
	return entries
}

// Serialize renders sources back into the line format accepted by Parse.
func Serialize(srcs []domain.Source) string {
	var b strings.Builder
	for _, s := range srcs {
		fmt.Fprintf(&b, "%s %s %s\n", s.Name, separator, s.BaseURL)
	}
	return b.String()
}

func hasHTTPScheme(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
