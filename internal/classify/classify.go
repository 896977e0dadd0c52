// Package classify maps recognized text to a DocumentType with an ordered,
// first-match-wins rule table.
package classify

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docscan/constants"
)

// Rule matches a document type when any keyword is contained in the
// normalized text or any pattern matches it. MRZ patterns run against the raw
// text with whitespace collapsed, since normalization strips '<'.
type Rule struct {
	Type     constants.DocumentType
	Keywords []string
	Patterns []*regexp.Regexp
	MRZ      []*regexp.Regexp
}

// Match reports whether the rule fires for already-normalized text.
func (r Rule) Match(normalized, compactRaw string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	for _, re := range r.Patterns {
		if re.MatchString(normalized) {
			return true
		}
	}
	for _, re := range r.MRZ {
		if re.MatchString(compactRaw) {
			return true
		}
	}
	return false
}

// DefaultRules is the evaluation order passport > aadhaar > pan > driving_license > voter_id.
// The passport MRZ is the most distinctive signal; the bare voter number the least.
var DefaultRules = []Rule{
	{
		Type:     constants.Passport,
		Keywords: []string{"PASSPORT", "पासपोर्ट", "REPUBLIC OF INDIA"},
		Patterns: []*regexp.Regexp{regexp.MustCompile(`\b[A-Z]\d{7,8}\b`)},
		MRZ:      []*regexp.Regexp{regexp.MustCompile(`P<[A-Z]{3}[A-Z<]{2,}`)},
	},
	{
		Type:     constants.Aadhaar,
		Keywords: []string{"AADHAAR", "AADHAR", "आधार", "UNIQUE IDENTIFICATION", "UIDAI"},
		Patterns: []*regexp.Regexp{regexp.MustCompile(`\b\d{4} ?\d{4} ?\d{4}\b`)},
	},
	{
		Type:     constants.PAN,
		Keywords: []string{"PERMANENT ACCOUNT NUMBER", "INCOME TAX", "पैन", "आयकर"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bPAN\b`),
			regexp.MustCompile(`\b[A-Z]{5}\d{4}[A-Z]\b`),
		},
	},
	{
		Type:     constants.DrivingLicense,
		Keywords: []string{"DRIVING LICENSE", "DRIVING LICENCE", "ड्राइविंग लाइसेंस", "DL NO"},
		Patterns: []*regexp.Regexp{regexp.MustCompile(`\b[A-Z]{2}[ -]?\d{2}[ -]?\d{4}[ -]?\d{7}\b`)},
	},
	{
		Type:     constants.VoterID,
		Keywords: []string{"VOTER", "मतदाता", "EPIC", "ELECTOR", "ELECTION COMMISSION"},
		Patterns: []*regexp.Regexp{regexp.MustCompile(`\b[A-Z]{3}\d{7}\b`)},
	},
}

var (
	reSpaces = regexp.MustCompile(`\s+`)
	noise    = strings.NewReplacer("<", "", ">", "", "$", "")
)

// Normalize collapses whitespace, strips '<' '>' '$' and upper-cases.
func Normalize(raw string) string {
	s := noise.Replace(raw)
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.ToUpper(strings.TrimSpace(s))
}

// Classifier evaluates a rule table in order.
type Classifier struct {
	rules []Rule
}

// New returns a Classifier over rules; nil means DefaultRules.
func New(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the first matching type, or Other.
func (c *Classifier) Classify(raw string) constants.DocumentType {
	normalized := Normalize(raw)
	compact := strings.ToUpper(reSpaces.ReplaceAllString(raw, ""))
	for _, r := range c.rules {
		if r.Match(normalized, compact) {
			return r.Type
		}
	}
	return constants.Other
}

var defaultClassifier = New(nil)

// Classify runs the default rule table.
func Classify(raw string) constants.DocumentType {
	return defaultClassifier.Classify(raw)
}
