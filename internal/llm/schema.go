package llm

// TranscriptionJSONSchema returns the JSON-Schema (draft 2020-12 subset) a
// transcription reply must satisfy.
func TranscriptionJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"text":       map[string]any{"type": "string", "minLength": 1, "pattern": `\S`},
			"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 100.0},
		},
		"required": []string{"text"},
	}
}
