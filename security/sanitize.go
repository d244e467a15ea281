package security

import (
	"regexp"
	"strings"
)

var (
	scriptBlock   = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	javascriptURI = regexp.MustCompile(`(?i)javascript:`)
	eventHandler  = regexp.MustCompile(`(?i)on\w+\s*=`)
)

// Sanitize strips script blocks, javascript: URIs and inline event handler
// assignments from every string leaf of v, preserving its shape. It is a
// defusing pass layered under validation, not an HTML sanitizer.
func Sanitize(v any) any {
	switch t := v.(type) {
	case string:
		return sanitizeString(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Sanitize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = Sanitize(item)
		}
		return out
	}
	return v
}

// maxSanitizePasses bounds the work spent on one string. Each pass peels
// one level of nesting; nothing legitimate nests that deep.
const maxSanitizePasses = 8

func sanitizeString(s string) string {
	// Removing one match can splice a new one together ("<scr<script></script>ipt>"),
	// so repeat until the string stops changing. A string still changing after
	// maxSanitizePasses is dropped.
	for range maxSanitizePasses {
		next := scriptBlock.ReplaceAllString(s, "")
		next = javascriptURI.ReplaceAllString(next, "")
		next = eventHandler.ReplaceAllString(next, "")
		next = strings.TrimSpace(next)
		if next == s {
			return next
		}
		s = next
	}
	return ""
}
