package extractor

import "regexp"

// Rules for JavaScript, TypeScript and other brace languages.
var clikeRules = []rule{
	{
		name:        "function-signature",
		description: "Function definition",
		re:          regexp.MustCompile(`\b((?:async\s+)?function\s*\*?\s*\w+)`),
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
		name:        "arrow-signature",
		description: "Arrow function bound to a name",
		re:          regexp.MustCompile(`(?:const|let|var)\s+(\w+\s*=\s*(?:async\s+)?\([^)]*\)\s*=>)`),
		tags:        []string{"function"},
		signature:   true,
	},
	{
		name:        "async-await",
		description: "Asynchronous function using async/await",
		re:          regexp.MustCompile(`\basync\s+(function\b|\w+\s*\(|\(.*\)\s*=>)`),
		tags:        []string{"async", "concurrency"},
	},
	{
		name:        "promise-chain",
		description: "Promise chain with then/catch handlers",
		re:          regexp.MustCompile(`\.then\s*\(`),
		tags:        []string{"async", "promise"},
	},
	{
		name:        "error-handling",
		description: "Structured error handling with try/catch",
		re:          regexp.MustCompile(`\btry\s*\{[\s\S]*?\}\s*catch\b`),
		tags:        []string{"error-handling", "robustness"},
	},
	{
		name:        "class-definition",
		description: "Class declaration",
		re:          regexp.MustCompile(`\bclass\s+[A-Z]\w*`),
		tags:        []string{"oop", "structure"},
	},
	{
		name:        "arrow-function",
		description: "Arrow function expression",
		re:          regexp.MustCompile(`\([^)]*\)\s*=>|\b\w+\s*=>`),
		tags:        []string{"functional"},
	},
	{
		name:        "module-export",
		description: "Module export declaration",
		re:          regexp.MustCompile(`\bexport\s+(default\s+)?(class|function|const|let|var|interface|type)\b|module\.exports\s*=`),
		tags:        []string{"module", "structure"},
	},
	{
		name:        "destructuring",
		description: "Destructuring assignment",
		re:          regexp.MustCompile(`(const|let|var)\s*\{[^}]+\}\s*=`),
		tags:        []string{"functional", "syntax"},
	},
	{
		name:        "interface-definition",
		description: "TypeScript interface declaration",
		re:          regexp.MustCompile(`\binterface\s+[A-Z]\w*`),
		tags:        []string{"typing", "structure"},
	},
}

var clikeImportRes = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*import\s+(?:[\w*{},\s]+\s+from\s+)?['"]([^'"]+)['"]`),
	regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`),
}
