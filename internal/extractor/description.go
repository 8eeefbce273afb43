package extractor

import (
	"regexp"
	"strings"
)

const maxDescriptionLen = 200

var (
	pythonDocstringRe = regexp.MustCompile(`(?s)(?:"""(.*?)"""|'''(.*?)''')`)
	blockCommentRe    = regexp.MustCompile(`(?s)/\*\*?(.*?)\*/`)
	lineCommentRe     = regexp.MustCompile(`(?m)^\s*(?://|#)\s?(.*)$`)
)

// ExtractDescription derives a short human description from the
// leading docstring or comment of a file. Returns "" when the file
// starts with plain code.
func ExtractDescription(content, language string) string {
	head := content
	if len(head) > 2000 {
		head = head[:2000]
	}

	var raw string
	switch NormalizeLanguage(language) {
	case "python":
		if m := pythonDocstringRe.FindStringSubmatch(head); m != nil {
			raw = m[1] + m[2]
		}
	default:
		if m := blockCommentRe.FindStringSubmatch(head); m != nil {
			raw = strings.ReplaceAll(m[1], "*", " ")
		}
	}

	if raw == "" {
		// Fall back to the first run of line comments.
		var lines []string
		for _, m := range lineCommentRe.FindAllStringSubmatch(head, 5) {
			lines = append(lines, m[1])
		}
		raw = strings.Join(lines, " ")
	}

	desc := strings.Join(strings.Fields(raw), " ")
	if len(desc) > maxDescriptionLen {
		desc = desc[:maxDescriptionLen]
	}
	return desc
}
