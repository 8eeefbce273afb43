package service

import (
	"fmt"
	"regexp"
	"strings"
)

// The assistant is asked to answer in six numbered sections. Responses
// that follow the shape are re-rendered as canonical markdown; anything
// else passes through untouched.
var responseSections = []string{
	"Understanding",
	"Approach",
	"Implementation",
	"Validation",
	"Considerations",
	"Conclusion",
}

var sectionHeadingRe = regexp.MustCompile(
	`(?mi)^\s*(?:#{1,4}\s*)?(?:\*\*)?\s*([1-6])[.)]\s*(Understanding|Approach|Implementation|Validation|Considerations|Conclusion)\b[:*\s]*$`)

// formatResponse renders a structured model response as canonical
// markdown, falling back to the raw text when the structure is absent
// or incomplete.
func formatResponse(raw string) string {
	sections, ok := parseStructuredResponse(raw)
	if !ok {
		return raw
	}

	var b strings.Builder
	for _, name := range responseSections {
		body := sections[name]
		b.WriteString("## ")
		b.WriteString(name)
		b.WriteString("\n\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// parseStructuredResponse splits raw on the numbered section headings.
// It succeeds only when all six sections appear, in order, each with a
// non-empty body.
func parseStructuredResponse(raw string) (map[string]string, bool) {
	matches := sectionHeadingRe.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) != len(responseSections) {
		return nil, false
	}

	sections := make(map[string]string, len(responseSections))
	for i, m := range matches {
		number := raw[m[2]:m[3]]
		name := normalizeSectionName(raw[m[4]:m[5]])

		// Headings must be the expected section in the expected slot.
		if name != responseSections[i] || number != fmt.Sprintf("%d", i+1) {
			return nil, false
		}

		bodyStart := m[1]
		bodyEnd := len(raw)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}

		body := strings.TrimSpace(raw[bodyStart:bodyEnd])
		if body == "" {
			return nil, false
		}
		sections[name] = body
	}

	return sections, true
}

func normalizeSectionName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}
