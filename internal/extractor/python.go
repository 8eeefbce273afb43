package extractor

import "regexp"

// Rules for Python source.
var pythonRules = []rule{
	{
		name:        "function-signature",
		description: "Function definition",
		re:          regexp.MustCompile(`(?m)^\s*((?:async\s+)?def\s+\w+)`),
		tags:        []string{"function"},
		signature:   true,
	},
	{
		name:        "class-signature",
		description: "Class definition",
		re:          regexp.MustCompile(`(?m)^\s*(class\s+\w+)`),
		tags:        []string{"class"},
		signature:   true,
	},
	{
		name:        "decorator",
		description: "Function or class decorator",
		re:          regexp.MustCompile(`(?m)^\s*@\w+`),
		tags:        []string{"metaprogramming", "structure"},
	},
	{
		name:        "class-definition",
		description: "Class declaration",
		re:          regexp.MustCompile(`(?m)^\s*class\s+[A-Z]\w*`),
		tags:        []string{"oop", "structure"},
	},
	{
		name:        "context-manager",
		description: "Resource management with a with block",
		re:          regexp.MustCompile(`(?m)^\s*with\s+\w+`),
		tags:        []string{"resource-management", "robustness"},
	},
	{
		name:        "error-handling",
		description: "Structured error handling with try/except",
		re:          regexp.MustCompile(`(?m)^\s*try\s*:[\s\S]*?^\s*except\b`),
		tags:        []string{"error-handling", "robustness"},
	},
	{
		name:        "list-comprehension",
		description: "List comprehension expression",
		re:          regexp.MustCompile(`\[[^\[\]]+\s+for\s+\w+\s+in\s+[^\[\]]+\]`),
		tags:        []string{"functional", "syntax"},
	},
	{
		name:        "generator",
		description: "Generator function using yield",
		re:          regexp.MustCompile(`\byield\b`),
		tags:        []string{"functional", "iteration"},
	},
	{
		name:        "async-await",
		description: "Asynchronous function using async/await",
		re:          regexp.MustCompile(`(?m)^\s*async\s+def\s+\w+`),
		tags:        []string{"async", "concurrency"},
	},
}

var pythonImportRes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*from\s+([\w.]+)\s+import\b`),
	regexp.MustCompile(`(?m)^\s*import\s+([\w.]+)`),
}
