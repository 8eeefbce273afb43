package extractor

import "regexp"

// Fallback rules for languages without a dedicated strategy. Matches
// here are weaker signals, reflected in their lower confidence.
var genericRules = []rule{
	{
		name:        "function-signature",
		description: "Function definition",
		re:          regexp.MustCompile(`\b((?:function|func|def|fn|sub|proc)\s+\w+)`),
		tags:        []string{"function"},
		signature:   true,
	},
	{
		name:        "class-signature",
		description: "Class definition",
		re:          regexp.MustCompile(`\b(class\s+\w+)`),
		tags:        []string{"class"},
		signature:   true,
	},
	{
		name:        "function-definition",
		description: "Function or method definition",
		re:          regexp.MustCompile(`\b(function|func|def|fn|sub|proc)\s+\w+`),
		tags:        []string{"structure"},
	},
	{
		name:        "conditional",
		description: "Conditional branch",
		re:          regexp.MustCompile(`\bif\b`),
		tags:        []string{"control-flow"},
	},
	{
		name:        "loop",
		description: "Iteration construct",
		re:          regexp.MustCompile(`\b(for|while|foreach|loop)\b`),
		tags:        []string{"control-flow", "iteration"},
	},
	{
		name:        "error-handling",
		description: "Error handling construct",
		re:          regexp.MustCompile(`\b(try|catch|except|rescue|recover)\b`),
		tags:        []string{"error-handling"},
	},
}
