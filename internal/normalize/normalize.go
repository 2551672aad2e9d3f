// Package normalize produces the canonical form used to decide whether two
// member definitions differ in anything other than comments and layout.
package normalize

import "strings"

const (
	lineComment       = "//"
	blockCommentStart = "/*"
	blockCommentEnd   = "*/"
)

// Text strips // and /* */ comments from source, trims every remaining line
// and joins the non-empty ones with a single space.
//
// Comment markers inside string or hex literals are not recognised as such
// and are stripped like real comments.
func Text(source string) string {
	var result []string
	inBlockComment := false

	for _, line := range strings.Split(source, "\n") {
		var kept strings.Builder
		rest := line

		for len(rest) > 0 {
			if inBlockComment {
				end := strings.Index(rest, blockCommentEnd)
				if end < 0 {
					rest = ""
					break
				}
				inBlockComment = false
				rest = rest[end+len(blockCommentEnd):]
				continue
			}

			lineIdx := strings.Index(rest, lineComment)
			blockIdx := strings.Index(rest, blockCommentStart)

			switch {
			case lineIdx >= 0 && (blockIdx < 0 || lineIdx < blockIdx):
				kept.WriteString(rest[:lineIdx])
				rest = ""
			case blockIdx >= 0:
				kept.WriteString(rest[:blockIdx])
				inBlockComment = true
				rest = rest[blockIdx+len(blockCommentStart):]
			default:
				kept.WriteString(rest)
				rest = ""
			}
		}

		if trimmed := strings.TrimSpace(kept.String()); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return strings.Join(result, " ")
}

// Equal reports whether a and b normalize to the same text.
func Equal(a, b string) bool {
	return Text(a) == Text(b)
}
