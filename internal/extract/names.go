package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docscan/constants"
)

// headerWords never appear in a holder's name; a candidate containing one is
// an issuer line, a caption or a country name.
var headerWords = toSet(
	"GOVERNMENT", "GOVT", "INDIA", "INDIAN", "REPUBLIC", "UNION", "BHARAT",
	"AADHAAR", "AADHAR", "UNIQUE", "IDENTIFICATION", "AUTHORITY", "UIDAI", "ENROLMENT", "VID",
	"INCOME", "TAX", "DEPARTMENT", "PERMANENT", "ACCOUNT", "NUMBER", "PAN",
	"PASSPORT", "SURNAME", "GIVEN", "NAME", "NAMES", "NATIONALITY", "TYPE", "CODE", "COUNTRY",
	"PLACE", "ISSUE", "EXPIRY", "VALID", "VALIDITY", "AUTHORISATION", "SIGNATURE", "HOLDER",
	"ELECTION", "COMMISSION", "ELECTOR", "ELECTORS", "IDENTITY", "CARD", "VOTER", "EPIC",
	"DRIVING", "LICENCE", "LICENSE", "MOTOR", "VEHICLES", "TRANSPORT", "FORM",
	"STATE", "DISTRICT", "MOBILE", "PHONE", "HELP", "WWW",
)

// stopWords end a name capture: whatever follows belongs to another field.
var stopWords = toSet(
	"DOB", "DATE", "YEAR", "BIRTH", "GENDER", "SEX", "MALE", "FEMALE", "AGE",
	"ADDRESS", "FATHER", "HUSBAND", "MOTHER", "NO", "S/O", "D/O", "W/O", "C/O", "SON", "WIFE", "DAUGHTER",
)

// commonSurnames seeds full-name recovery when only one part was captured.
var commonSurnames = []string{
	"SINGH", "KUMAR", "SHARMA", "PATEL", "RAO", "REDDY", "MEHTA", "GUPTA", "VERMA", "YADAV",
	"MISHRA", "JHA", "SAXENA", "TIWARI", "JOSHI", "CHAUDHARY", "AGRAWAL", "JAIN",
}

var (
	reNameToken = regexp.MustCompile(`^[A-Za-z][A-Za-z.']*$`)
	reRelation  = regexp.MustCompile(`(?i)\b[SDWC]\s*/\s*O\b|\bSON\s+OF\b|\bWIFE\s+OF\b|\bDAUGHTER\s+OF\b`)
	// reNameLine is a whole line of two to four upper-case name tokens.
	reNameLine = regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Z.']+(?:[ \t]+[A-Z][A-Z.']*){1,3})[ \t]*$`)
	// reRelationLabel precedes labels that name someone other than the holder.
	reRelationLabel = regexp.MustCompile(`(?i)(?:father|husband|mother|guardian|relation)'?s?\s*$|(?:पिता|पति|माता)\s*का\s*$`)
	surnameAlt      = strings.Join(commonSurnames, "|")
	reDictName      = regexp.MustCompile(`\b([A-Z]{3,}\s+(?:` + surnameAlt + `)|(?:` + surnameAlt + `)\s+[A-Z]{3,})\b`)
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

func tokenKey(tok string) string {
	t := strings.ToUpper(strings.Trim(tok, ".,'"))
	return strings.TrimSuffix(t, "'S")
}

// nameShape bounds a name capture.
type nameShape struct {
	minTokens int
	minLen    int
	upper     bool
}

// cleanName extracts a holder-style name from a captured value: relation
// markers cut the value, '/' and '|' split bilingual captions, tokens stop at
// the first stop word or non-name token, and header words reject the whole
// candidate.
func cleanName(value string, shape nameShape) (string, bool) {
	if loc := reRelation.FindStringIndex(value); loc != nil {
		value = value[:loc[0]]
	}
	for _, segment := range strings.FieldsFunc(value, func(r rune) bool { return r == '/' || r == '|' }) {
		if name, ok := nameFromSegment(segment, shape); ok {
			return name, true
		}
	}
	return "", false
}

func nameFromSegment(segment string, shape nameShape) (string, bool) {
	var tokens []string
	for _, tok := range strings.Fields(segment) {
		word := strings.TrimRight(tok, ",;")
		last := word != tok
		key := tokenKey(word)
		if _, stop := stopWords[key]; stop {
			break
		}
		if !reNameToken.MatchString(word) {
			break
		}
		if _, header := headerWords[key]; header {
			return "", false
		}
		tokens = append(tokens, strings.TrimRight(word, "."))
		if last {
			break
		}
	}
	name := strings.Join(tokens, " ")
	if len(tokens) < max(1, shape.minTokens) || len(name) < max(3, shape.minLen) {
		return "", false
	}
	if shape.upper {
		name = strings.ToUpper(name)
	}
	return name, true
}

// nameValidator adapts cleanName to a rule Validator.
func nameValidator(shape nameShape) Validator {
	return func(c Candidate) (string, bool) {
		return cleanName(c.Value, shape)
	}
}

// recoverFullName extends a one-part name with a common surname found next to
// it elsewhere in text, preferring the longer form.
func recoverFullName(name, text string) string {
	upper := strings.ToUpper(name)
	q := regexp.QuoteMeta(upper)
	forms := []*regexp.Regexp{
		regexp.MustCompile(`\b(` + q + `\s+(?:` + surnameAlt + `))\b`),
		regexp.MustCompile(`\b((?:` + surnameAlt + `)\s+` + q + `)\b`),
	}
	best := name
	for _, re := range forms {
		if m := re.FindStringSubmatch(strings.ToUpper(text)); m != nil {
			candidate := strings.Join(strings.Fields(m[1]), " ")
			if len(candidate) > len(best) {
				best = candidate
			}
		}
	}
	return best
}

// nameLines returns the name-shaped lines of text in order.
func nameLines(text string) []string {
	var out []string
	for _, m := range reNameLine.FindAllStringSubmatch(text, -1) {
		if name, ok := cleanName(m[1], nameShape{minTokens: 2, minLen: 5}); ok {
			out = append(out, name)
		}
	}
	return out
}

// labelledName builds a rule reading a name after label, skipping labels that
// belong to a relative.
func labelledName(field constants.FieldName, label string, shape nameShape) Rule {
	return Rule{
		Field:    field,
		Label:    regexp.MustCompile(`(?i)` + label),
		Guard:    reRelationLabel,
		Validate: nameValidator(shape),
	}
}

// relationName reads a relative's name after label; no relation guard.
func relationName(field constants.FieldName, label string) Rule {
	return Rule{
		Field:    field,
		Label:    regexp.MustCompile(`(?i)` + label),
		Validate: nameValidator(nameShape{minTokens: 1, minLen: 3}),
	}
}

// unlabelledName takes the first line that is nothing but a two to four token name.
func unlabelledName(field constants.FieldName, upper bool) Rule {
	return Rule{
		Field: field,
		Find: func(d *Document) (string, bool) {
			lines := nameLines(d.Raw)
			if len(lines) == 0 {
				return "", false
			}
			if upper {
				return strings.ToUpper(lines[0]), true
			}
			return lines[0], true
		},
	}
}

// dictionaryName matches "GIVEN SURNAME" or "SURNAME GIVEN" for a common
// surname anywhere in the cleaned text and extends it when possible.
func dictionaryName(field constants.FieldName) Rule {
	return Rule{
		Field:   field,
		Source:  SourceClean,
		Pattern: reDictName,
		Validate: func(c Candidate) (string, bool) {
			name, ok := cleanName(c.Value, nameShape{minTokens: 2, minLen: 5, upper: true})
			if !ok {
				return "", false
			}
			return recoverFullName(name, c.Text), true
		},
	}
}
