package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docscan/constants"
)

// Source selects which rendition of the text a rule reads.
type Source int

const (
	// SourceRaw is the provider text with line endings normalized.
	SourceRaw Source = iota
	// SourceUpper is SourceRaw upper-cased.
	SourceUpper
	// SourceClean is single-line text with whitespace collapsed, '<' '>' blanked and '$' dropped.
	SourceClean
)

// Candidate is one textual match offered to a Validator.
type Candidate struct {
	Value      string // capture group 1 when present, else the whole match
	Start, End int    // offsets of Value in Text
	MatchStart int    // offset of the whole match (label included) in Text
	Text       string
}

// Before returns up to n bytes preceding the whole match.
func (c Candidate) Before(n int) string {
	return c.Text[max(0, c.MatchStart-n):c.MatchStart]
}

// After returns up to n bytes following Value.
func (c Candidate) After(n int) string {
	return c.Text[c.End:min(len(c.Text), c.End+n)]
}

// Validator accepts a candidate and returns the cleaned field value.
type Validator func(c Candidate) (string, bool)

// Rule is one (pattern, validator, field) entry. Exactly one of Pattern, Label
// or Find is set:
//   - Pattern: every match is a candidate.
//   - Label: every label occurrence is a candidate whose value is the rest of
//     the line, or the next line when the rest is empty.
//   - Find: custom lookup returning the final value.
//
// Guard, when set, rejects a match whose preceding text matches it.
type Rule struct {
	Field    constants.FieldName
	Source   Source
	Pattern  *regexp.Regexp
	Label    *regexp.Regexp
	Guard    *regexp.Regexp
	Validate Validator
	Find     func(d *Document) (string, bool)
}

// Document holds the renditions of one recognized text.
type Document struct {
	Raw   string
	Upper string
	Clean string
}

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`[\t\f\v]+`)
	reWhitespace = regexp.MustCompile(`\s+`)
	reAngles     = regexp.MustCompile(`[<>]`)
)

// NewDocument prepares the renditions of raw.
func NewDocument(raw string) *Document {
	r := reCRLF.ReplaceAllString(raw, "\n")
	r = reTabs.ReplaceAllString(r, " ")
	clean := reAngles.ReplaceAllString(r, " ")
	clean = strings.ReplaceAll(clean, "$", "")
	clean = strings.TrimSpace(reWhitespace.ReplaceAllString(clean, " "))
	return &Document{Raw: r, Upper: strings.ToUpper(r), Clean: clean}
}

func (d *Document) text(s Source) string {
	switch s {
	case SourceUpper:
		return d.Upper
	case SourceClean:
		return d.Clean
	default:
		return d.Raw
	}
}

// Eval returns the first validated value produced by the rule.
func (r Rule) Eval(d *Document) (string, bool) {
	if r.Find != nil {
		return r.Find(d)
	}
	text := d.text(r.Source)
	switch {
	case r.Label != nil:
		for _, loc := range r.Label.FindAllStringIndex(text, -1) {
			c, ok := labelValue(text, loc[0], loc[1])
			if !ok || r.guarded(c) {
				continue
			}
			if v, ok := r.validate(c); ok {
				return v, true
			}
		}
	case r.Pattern != nil:
		for _, loc := range r.Pattern.FindAllStringSubmatchIndex(text, -1) {
			c := Candidate{Start: loc[0], End: loc[1], MatchStart: loc[0], Text: text}
			if len(loc) >= 4 && loc[2] >= 0 {
				c.Start, c.End = loc[2], loc[3]
			}
			c.Value = text[c.Start:c.End]
			if r.guarded(c) {
				continue
			}
			if v, ok := r.validate(c); ok {
				return v, true
			}
		}
	}
	return "", false
}

func (r Rule) guarded(c Candidate) bool {
	return r.Guard != nil && r.Guard.MatchString(c.Before(32))
}

func (r Rule) validate(c Candidate) (string, bool) {
	if r.Validate == nil {
		v := strings.TrimSpace(c.Value)
		return v, v != ""
	}
	return r.Validate(c)
}

const labelSeparators = " \t:-.|/=()"

// labelValue reads the value following a label ending at end: the rest of the
// line, or the next line when the rest holds only separators.
func labelValue(text string, start, end int) (Candidate, bool) {
	lineEnd := strings.IndexByte(text[end:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += end
	}
	vs, ve := trimSpan(text, end, lineEnd)
	if vs == ve && lineEnd < len(text) {
		next := lineEnd + 1
		nextEnd := strings.IndexByte(text[next:], '\n')
		if nextEnd < 0 {
			nextEnd = len(text)
		} else {
			nextEnd += next
		}
		vs, ve = trimSpan(text, next, nextEnd)
	}
	if vs == ve {
		return Candidate{}, false
	}
	return Candidate{Value: text[vs:ve], Start: vs, End: ve, MatchStart: start, Text: text}, true
}

// trimSpan narrows [s,e) past leading separators (and a "(s)" plural marker)
// and trailing whitespace.
func trimSpan(text string, s, e int) (int, int) {
	for s < e {
		if e-s >= 3 && strings.EqualFold(text[s:s+3], "(s)") {
			s += 3
			continue
		}
		if strings.IndexByte(labelSeparators, text[s]) >= 0 {
			s++
			continue
		}
		break
	}
	for e > s && strings.IndexByte(" \t", text[e-1]) >= 0 {
		e--
	}
	return s, e
}
