package llm

import "strings"

// BuildTranscriptionPrompt asks for a verbatim transcription of an identity
// document photo, in the JSON shape of TranscriptionJSONSchema.
func BuildTranscriptionPrompt(languages []string) string {
	langs := "English and Hindi"
	if len(languages) > 0 {
		langs = strings.Join(languages, ", ")
	}
	parts := []string{
		"You are an OCR engine for Indian identity documents (Aadhaar, PAN, passport, driving licence, voter ID).",
		"Transcribe ALL visible text verbatim, line by line, in reading order. Languages: " + langs + ".",
		"Keep numbers, dates, separators and machine-readable zone lines (with '<' fillers) exactly as printed.",
		"Do not translate, correct, summarize or add labels that are not printed.",
		"Return ONLY JSON: {\"text\": string, \"confidence\": number 0-100}. Never output null.",
	}
	return strings.Join(parts, " ")
}
