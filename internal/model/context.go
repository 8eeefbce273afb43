package model

// RelevantFile is a code reference injected into conversation context.
type RelevantFile struct {
	Path        string `json:"path"`
	Snippet     string `json:"snippet"`
	Description string `json:"description,omitempty"`
}

// CodeContext is the code-related slice of conversation context.
type CodeContext struct {
	Language       string         `json:"language,omitempty"`
	Patterns       []string       `json:"patterns,omitempty"`
	ProjectContext string         `json:"projectContext,omitempty"`
	RelevantFiles  []RelevantFile `json:"relevantFiles,omitempty"`
}

// ContextData is the accumulated conversational state attached to a
// Conversation and snapshotted per message.
type ContextData struct {
	Topic       string         `json:"topic,omitempty"`
	Entities    map[string]any `json:"entities,omitempty"`
	References  []string       `json:"references,omitempty"`
	CodeContext *CodeContext   `json:"codeContext,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Merge combines patch into base with shallow, last-write-wins
// semantics at the top level: a field set in patch replaces the whole
// corresponding field in base, fields absent from patch persist from
// base. Nested values are never deep-merged here; topic-triggered
// codeContext enrichment happens before the merge, in the context
// service.
func (base ContextData) Merge(patch ContextData) ContextData {
	merged := base
	if patch.Topic != "" {
		merged.Topic = patch.Topic
	}
	if patch.Entities != nil {
		merged.Entities = patch.Entities
	}
	if patch.References != nil {
		merged.References = patch.References
	}
	if patch.CodeContext != nil {
		merged.CodeContext = patch.CodeContext
	}
	if patch.Metadata != nil {
		merged.Metadata = patch.Metadata
	}
	return merged
}

// MergeShallow unions src into a copy of dst at the top level, src
// winning on key collisions. Used for pattern context accumulation.
func MergeShallow(dst, src map[string]any) map[string]any {
	merged := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		merged[k] = v
	}
	for k, v := range src {
		merged[k] = v
	}
	return merged
}
