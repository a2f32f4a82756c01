package htmlutil

import (
	"bytes"
	"strings"

	"github.com/k3a/html2text"
)

// ToText converts HTML to plain text using a proper HTML parser.
// Handles entities, strips tags, and preserves readable text.
func ToText(s string) string {
	return html2text.HTML2Text(s)
}

// LooksLikeHTML reports whether body starts like an HTML document.
func LooksLikeHTML(body []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 64 {
		head = head[:64]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) ||
		bytes.HasPrefix(head, []byte("<html")) ||
		bytes.Contains(head, []byte("<head")) ||
		bytes.Contains(head, []byte("<body"))
}

// Summary converts HTML to text, collapses whitespace and truncates to max
// runes.
func Summary(s string, max int) string {
	text := strings.Join(strings.Fields(ToText(s)), " ")
	r := []rune(text)
	if max > 0 && len(r) > max {
		return strings.TrimSpace(string(r[:max])) + "…"
	}
	return text
}
