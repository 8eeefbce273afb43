package extractor

import (
	"regexp"
	"strings"
)

// exampleWindow is the number of context lines kept on each side of a
// match when cutting its example.
const exampleWindow = 3

// maxComplexity caps the heuristic complexity score.
const maxComplexity = 10

// maxSignatureMatches bounds how many headers one signature rule may
// emit from a single piece of source.
const maxSignatureMatches = 30

// rule is one regex-backed pattern definition. Signature rules name
// each occurrence by the matched header text instead of the rule name
// and tag it with the analyzed language.
type rule struct {
	name        string
	description string
	re          *regexp.Regexp
	tags        []string
	signature   bool
}

var (
	controlFlowRe = regexp.MustCompile(`\b(if|else|elif|for|while|switch|case|catch|except)\b`)
	functionRe    = regexp.MustCompile(`\bfunction\b|\bfunc\b|\bdef\b|=>`)
)

// detect runs every rule against content. An idiom rule contributes at
// most one occurrence, anchored at its first match; a signature rule
// contributes one occurrence per distinct header.
func detect(content, language string, rules []rule, confidence float64) []DetectedPattern {
	lines := strings.Split(content, "\n")

	var patterns []DetectedPattern
	for _, r := range rules {
		if r.signature {
			patterns = append(patterns, detectSignatures(content, lines, language, r, confidence)...)
			continue
		}

		loc := r.re.FindStringIndex(content)
		if loc == nil {
			continue
		}

		line := strings.Count(content[:loc[0]], "\n")
		example := cutExample(lines, line)

		patterns = append(patterns, DetectedPattern{
			Name:        r.name,
			Description: r.description,
			Language:    language,
			Example:     example,
			Tags:        r.tags,
			Confidence:  confidence,
			Complexity:  complexityOf(example),
			Line:        line + 1,
		})
	}

	return patterns
}

// detectSignatures emits one pattern per distinct function or class
// header, named by the matched signature text. The rule's first capture
// group, when present, strips indentation and keywords around the
// header.
func detectSignatures(content string, lines []string, language string, r rule, confidence float64) []DetectedPattern {
	var patterns []DetectedPattern
	seen := make(map[string]bool)
	for _, loc := range r.re.FindAllStringSubmatchIndex(content, maxSignatureMatches) {
		start, end := loc[0], loc[1]
		if len(loc) >= 4 && loc[2] >= 0 {
			start, end = loc[2], loc[3]
		}

		name := strings.Join(strings.Fields(content[start:end]), " ")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		line := strings.Count(content[:loc[0]], "\n")
		example := cutExample(lines, line)
		tags := append(append([]string{}, r.tags...), language)

		patterns = append(patterns, DetectedPattern{
			Name:        name,
			Description: r.description,
			Language:    language,
			Example:     example,
			Tags:        tags,
			Confidence:  confidence,
			Complexity:  complexityOf(example),
			Line:        line + 1,
		})
	}
	return patterns
}

// cutExample returns the match line with exampleWindow lines of context
// on each side.
func cutExample(lines []string, line int) string {
	start := line - exampleWindow
	if start < 0 {
		start = 0
	}
	end := line + exampleWindow + 1
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

// complexityOf scores a snippet as 1 plus its control-flow and function
// token count, capped at maxComplexity.
func complexityOf(snippet string) int {
	score := 1
	score += len(controlFlowRe.FindAllString(snippet, -1))
	score += len(functionRe.FindAllString(snippet, -1))
	if score > maxComplexity {
		score = maxComplexity
	}
	return score
}
