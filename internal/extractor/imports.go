package extractor

import "regexp"

var goImportRes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*import\s+(?:\w+\s+)?"([^"]+)"`),
	regexp.MustCompile(`(?m)^\s*(?:\w+\s+)?"([^"]+)"\s*$`),
}

// ExtractDependencies pulls import targets out of source content. The
// result is deduplicated and keeps first-seen order.
func ExtractDependencies(content, language string) []string {
	var res []*regexp.Regexp
	switch NormalizeLanguage(language) {
	case "javascript", "typescript":
		res = clikeImportRes
	case "python":
		res = pythonImportRes
	case "go":
		res = goImportRes
	default:
		return nil
	}

	seen := make(map[string]bool)
	var deps []string
	for _, re := range res {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			dep := match[1]
			if dep == "" || seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
		}
	}

	return deps
}
