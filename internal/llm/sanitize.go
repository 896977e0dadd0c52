package llm

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// StripCodeFences removes a surrounding ```json ... ``` block.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// NormalizeTranscriptionJSON
//   - strips code fences
//   - renames "transcript"/"ocr_text" to "text"
//   - coerces confidence to a number on the 0..100 scale (0..1 is scaled up)
//   - drops null confidence and unknown keys
//
// It returns the cleaned document and a list of what was changed.
func NormalizeTranscriptionJSON(raw string) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string
	for _, alias := range []string{"transcript", "ocr_text", "fullText"} {
		if v, ok := m[alias]; ok {
			if _, exists := m["text"]; !exists {
				m["text"] = v
			}
			delete(m, alias)
			changed = append(changed, alias+"->text")
		}
	}

	switch v := m["confidence"].(type) {
	case nil:
		if _, ok := m["confidence"]; ok {
			delete(m, "confidence")
			changed = append(changed, "confidence(null)")
		}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			delete(m, "confidence")
			changed = append(changed, "confidence(type)")
		} else {
			m["confidence"] = scaleConfidence(f)
			changed = append(changed, "confidence(string)")
		}
	case float64:
		if s := scaleConfidence(v); s != v {
			m["confidence"] = s
			changed = append(changed, "confidence(scaled)")
		}
	default:
		delete(m, "confidence")
		changed = append(changed, "confidence(type)")
	}

	for k := range maps.Clone(m) {
		if k != "text" && k != "confidence" {
			delete(m, k)
			changed = append(changed, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	return out, changed, nil
}

func scaleConfidence(f float64) float64 {
	if f > 0 && f <= 1 {
		return f * 100
	}
	return f
}
