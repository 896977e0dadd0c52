package ocr

import (
	"regexp"
	"strings"
)

var (
	reIDToken  = regexp.MustCompile(`\b\d{4}\s?\d{4}\s?\d{4}\b|\b[A-Z]{5}\d{4}[A-Z]\b|\b[A-Z]\d{7}\b|\b[A-Z]{3}\d{7}\b|\b[A-Z]{2}[ -]?\d{2}[ -]?\d{11}\b`)
	reDateLike = regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.]\d{4}\b`)
	reDocWord  = regexp.MustCompile(`(?i)\b(?:government|india|aadhaar|aadhar|passport|income tax|licen[cs]e|election|name|dob|birth|address)\b|भारत|आधार|नाम`)
)

// HeuristicConfidence scores text 0..100 by the ID-card signals it carries,
// for engines that report no confidence of their own.
func HeuristicConfidence(txt string) float64 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	score := 30.0
	if reIDToken.MatchString(txt) {
		score += 25
	}
	if reDateLike.MatchString(txt) {
		score += 15
	}
	if n := len(reDocWord.FindAllStringIndex(txt, 4)); n > 0 {
		score += float64(n) * 5
	}
	if len(txt) > 120 {
		score += 10
	}
	return min(score, 100)
}

// Blend weights an engine's own confidence over the heuristic score; a
// non-positive engine score leaves the heuristic alone.
func Blend(engine, heuristic float64) float64 {
	if engine <= 0 {
		return heuristic
	}
	return min(0.7*engine+0.3*heuristic, 100)
}
