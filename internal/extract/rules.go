package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docscan/constants"
)

// Extractor is the ordered rule table for one document type. Dates are not
// rules: they come from the shared pool through Dates and Buckets.
type Extractor struct {
	Rules   []Rule
	Dates   []DateRule
	Buckets []Bucket
}

// rules concatenates rule groups in order.
func rules(groups ...[]Rule) []Rule {
	var out []Rule
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func one(r ...Rule) []Rule { return r }

// DefaultExtractors returns a fresh rule table per document type.
func DefaultExtractors() map[constants.DocumentType]Extractor {
	return map[constants.DocumentType]Extractor{
		constants.Aadhaar:        aadhaarExtractor(),
		constants.Passport:       passportExtractor(),
		constants.PAN:            panExtractor(),
		constants.DrivingLicense: drivingLicenseExtractor(),
		constants.VoterID:        voterIDExtractor(),
		constants.Other:          otherExtractor(),
	}
}

var (
	fatherLabel  = `\bS\s*/\s*O\b|\bD\s*/\s*O\b|\bSon\s+of\b|\bDaughter\s+of\b|Father'?s?\s+Name|पिता\s+का\s+नाम`
	husbandLabel = `\bW\s*/\s*O\b|\bWife\s+of\b|Husband'?s?\s+Name|पति\s+का\s+नाम`
	nameLabel    = `\bName\b|नाम`
)

func aadhaarExtractor() Extractor {
	return Extractor{
		Rules: rules(
			one(
				Rule{
					Field:    constants.FieldAadhaarNumber,
					Pattern:  regexp.MustCompile(`(?i)(?:Aadhaar|Aadhar|आधार)\s*(?:No\.?|Number|संख्या)?\s*[:\-]?\s*(\d{4}[ -]?\d{4}[ -]?\d{4})\b`),
					Validate: aadhaarNumber,
				},
				Rule{
					Field:    constants.FieldAadhaarNumber,
					Pattern:  regexp.MustCompile(`\b(\d{4}[ -]?\d{4}[ -]?\d{4})\b`),
					Validate: aadhaarNumber,
				},
				labelledName(constants.FieldHolderName, nameLabel, nameShape{minTokens: 1, minLen: 3}),
				unlabelledName(constants.FieldHolderName, false),
			),
			genderRules(),
			one(
				addressRule(),
				relationName(constants.FieldFatherName, fatherLabel),
				relationName(constants.FieldHusbandName, husbandLabel),
			),
			pincodeRules(),
			one(districtRule(), stateRule()),
		),
		Dates:   []DateRule{birthRule},
		Buckets: []Bucket{birthBucket},
	}
}

var (
	reGivenLabel   = regexp.MustCompile(`(?i)Given\s+Names?`)
	reSurnameLabel = regexp.MustCompile(`(?i)\bSurname\b`)
	reMRZName      = regexp.MustCompile(`P<[A-Z]{3}([A-Z]+(?:<[A-Z]+)*)<<([A-Z]+(?:<[A-Z]+)*)`)
	reMRZNumber    = regexp.MustCompile(`\b([A-Z]\d{7,8})<*\d[A-Z]{3}\d{7}`)
	reCompact      = regexp.MustCompile(`\s+`)
)

// passportName joins the "Given Name(s)" and "Surname" captions.
func passportName() Rule {
	shape := nameShape{minTokens: 1, minLen: 2, upper: true}
	given := Rule{Label: reGivenLabel, Validate: nameValidator(shape)}
	surname := Rule{Label: reSurnameLabel, Validate: nameValidator(shape)}
	return Rule{
		Field: constants.FieldHolderName,
		Find: func(d *Document) (string, bool) {
			g, ok := given.Eval(d)
			if !ok {
				return "", false
			}
			s, ok := surname.Eval(d)
			if !ok {
				return "", false
			}
			return g + " " + s, true
		},
	}
}

// mrzName reads "SURNAME<<GIVEN<NAMES" from the first MRZ line.
func mrzName() Rule {
	return Rule{
		Field: constants.FieldHolderName,
		Find: func(d *Document) (string, bool) {
			m := reMRZName.FindStringSubmatch(reCompact.ReplaceAllString(d.Upper, ""))
			if m == nil {
				return "", false
			}
			given := strings.ReplaceAll(m[2], "<", " ")
			surname := strings.ReplaceAll(m[1], "<", " ")
			return given + " " + surname, true
		},
	}
}

// recovered wraps a name validator with full-name recovery.
func recovered(shape nameShape) Validator {
	return func(c Candidate) (string, bool) {
		name, ok := cleanName(c.Value, shape)
		if !ok {
			return "", false
		}
		return strings.ToUpper(recoverFullName(name, c.Text)), true
	}
}

func passportExtractor() Extractor {
	number := func(src Source, re string) Rule {
		return Rule{
			Field:    constants.FieldPassportNumber,
			Source:   src,
			Pattern:  regexp.MustCompile(re),
			Validate: passportNumber,
		}
	}
	return Extractor{
		Rules: rules(
			one(
				number(SourceClean, `(?i)passport\s*(?:no|number|#)?\.?\s*[:=]?\s*([A-Z]?\s*[=:]?\s*\d{7,9})\b`),
				number(SourceClean, `[=:]\s*[A-Z]?\s*(\d{7,9})\b`),
				Rule{
					Field:    constants.FieldPassportNumber,
					Source:   SourceUpper,
					Pattern:  reMRZNumber,
					Validate: passportNumber,
				},
				number(SourceClean, `\b([A-Z]\s?\d{7,9})\b`),
				passportName(),
				mrzName(),
				Rule{
					Field:    constants.FieldHolderName,
					Label:    reGivenLabel,
					Validate: recovered(nameShape{minTokens: 2, minLen: 5}),
				},
				Rule{
					Field:    constants.FieldHolderName,
					Label:    regexp.MustCompile(`(?i)` + nameLabel),
					Guard:    reRelationLabel,
					Validate: recovered(nameShape{minTokens: 1, minLen: 3}),
				},
				dictionaryName(constants.FieldHolderName),
			),
			placeOfIssueRules(),
			one(nationalityRule()),
			genderRules()[:1],
		),
		Dates:   []DateRule{birthRule, issueRule, expiryRule},
		Buckets: []Bucket{birthBucket, issueBucket, expiryBucket},
	}
}

var rePANHeader = regexp.MustCompile(`(?i)INCOME\s+TAX\s+DEPARTMENT|INCOME\s+TAX|GOVT\.?\s+OF\s+INDIA|GOVERNMENT\s+OF\s+INDIA|आयकर\s+विभाग|भारत\s+सरकार`)

// panPositional reads the nth name-shaped line below the issuer header; PAN
// cards print the holder first and the father second, often without labels.
func panPositional(field constants.FieldName, nth int) Rule {
	return Rule{
		Field: field,
		Find: func(d *Document) (string, bool) {
			locs := rePANHeader.FindAllStringIndex(d.Raw, -1)
			if len(locs) == 0 {
				return "", false
			}
			lines := nameLines(d.Raw[locs[len(locs)-1][1]:])
			if len(lines) <= nth {
				return "", false
			}
			return strings.ToUpper(lines[nth]), true
		},
	}
}

func panExtractor() Extractor {
	return Extractor{
		Rules: rules(
			one(
				Rule{
					Field:    constants.FieldPANNumber,
					Source:   SourceUpper,
					Pattern:  regexp.MustCompile(`(?i)(?:PERMANENT\s+ACCOUNT\s+NUMBER(?:\s+CARD)?|\bPAN\b|पैन)\s*(?:NO\.?|NUMBER)?\s*[:\-.]?\s*([A-Z0-9]{10})\b`),
					Validate: panNumber,
				},
				Rule{
					Field:    constants.FieldPANNumber,
					Source:   SourceUpper,
					Pattern:  regexp.MustCompile(`\b([A-Z]{5}\d{4}[A-Z])\b`),
					Validate: panNumber,
				},
				Rule{
					Field:    constants.FieldPANNumber,
					Source:   SourceUpper,
					Pattern:  regexp.MustCompile(`\b([A-Z0-9]{10})\b`),
					Validate: panNumber,
				},
				labelledName(constants.FieldHolderName, nameLabel, nameShape{minTokens: 1, minLen: 3, upper: true}),
				panPositional(constants.FieldHolderName, 0),
				relationName(constants.FieldFatherName, fatherLabel),
				panPositional(constants.FieldFatherName, 1),
			),
		),
		Dates:   []DateRule{birthRule},
		Buckets: []Bucket{birthBucket},
	}
}

func drivingLicenseExtractor() Extractor {
	return Extractor{
		Rules: rules(
			one(
				Rule{
					Field:    constants.FieldIDNumber,
					Source:   SourceUpper,
					Pattern:  regexp.MustCompile(`(?:\bDL|LICEN[CS]E)\s*(?:NO\.?|NUMBER)\s*[:\-.]?\s*([A-Z0-9]{2}[ -]?[A-Z0-9]{2}[ -]?[A-Z0-9]{4}[ -]?[A-Z0-9]{7})\b`),
					Validate: drivingLicenceNumber,
				},
				Rule{
					Field:    constants.FieldIDNumber,
					Source:   SourceUpper,
					Pattern:  regexp.MustCompile(`\b([A-Z]{2}[ -]?\d{2}[ -]?\d{4}[ -]?\d{7})\b`),
					Validate: drivingLicenceNumber,
				},
				labelledName(constants.FieldHolderName, nameLabel, nameShape{minTokens: 1, minLen: 3}),
				unlabelledName(constants.FieldHolderName, false),
				addressRule(),
			),
			pincodeRules(),
			one(relationName(constants.FieldFatherName, fatherLabel)),
		),
		Dates:   []DateRule{birthRule, issueRule, expiryRule},
		Buckets: []Bucket{birthBucket, issueBucket, expiryBucket},
	}
}

func voterIDExtractor() Extractor {
	return Extractor{
		Rules: rules(
			one(
				Rule{
					Field:    constants.FieldIDNumber,
					Source:   SourceUpper,
					Pattern:  regexp.MustCompile(`(?:EPIC|VOTER\s*ID|IDENTITY\s+CARD)\s*(?:NO\.?|NUMBER)?\s*[:\-.]?\s*([A-Z0-9]{10})\b`),
					Validate: epicNumber,
				},
				Rule{
					Field:    constants.FieldIDNumber,
					Source:   SourceUpper,
					Pattern:  regexp.MustCompile(`\b([A-Z]{3}\d{7})\b`),
					Validate: epicNumber,
				},
				labelledName(constants.FieldHolderName, `Elector'?s\s+Name|`+nameLabel, nameShape{minTokens: 1, minLen: 3}),
				unlabelledName(constants.FieldHolderName, false),
				relationName(constants.FieldFatherName, fatherLabel),
				relationName(constants.FieldHusbandName, husbandLabel),
			),
			genderRules(),
			one(addressRule(), districtRule(), constituencyRule()),
			pincodeRules(),
		),
		Dates:   []DateRule{birthRule},
		Buckets: []Bucket{birthBucket},
	}
}

func otherExtractor() Extractor {
	return Extractor{
		Rules: rules(
			one(labelledName(constants.FieldHolderName, nameLabel, nameShape{minTokens: 1, minLen: 3})),
			genderRules()[:1],
			one(addressRule()),
			pincodeRules()[:1],
		),
		Dates: []DateRule{birthRule},
	}
}
