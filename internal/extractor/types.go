package extractor

// DetectedPattern is one pattern occurrence found in analyzed source.
type DetectedPattern struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Language     string   `json:"language"`
	Example      string   `json:"example"`
	Tags         []string `json:"tags"`
	Confidence   float64  `json:"confidence"`
	Complexity   int      `json:"complexity"`
	Dependencies []string `json:"dependencies"`
	Line         int      `json:"line"`
}

// Result is the outcome of analyzing one piece of source. Confidence
// reflects the batch as a whole: high when anything matched, low when
// the content yielded nothing.
type Result struct {
	Language     string            `json:"language"`
	Patterns     []DetectedPattern `json:"patterns"`
	Dependencies []string          `json:"dependencies"`
	Confidence   float64           `json:"confidence"`
}
