package extract

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/docscan/constants"
)

const (
	maxAddressLines  = 5
	minAddressLength = 11
)

var (
	reAddressLabel = regexp.MustCompile(`(?i)\bPermanent\s+Address\b|\bAddress\b|\bResidence\b|पता`)
	// reFieldKeyword marks where another field begins and the address ends,
	// at the start of a line or after a separator inside it.
	reFieldKeyword = regexp.MustCompile(`(?i)(?:^|[\s,;:|(])(?:DOB\b|D\.O\.B|Date\s+of|Year\s+of|Gender|Sex\b|Male\b|Female\b|Aadhaar|Aadhar|आधार|VID\b|Mobile|Phone|Issue|Valid|Signature|जन्म|पुरुष|महिला|Blood\s+Group|Name\b|\d{4}\s\d{4}\s\d{4})`)
	reLeadSep   = regexp.MustCompile(`^[\s:\-.,|]+`)
	reCommaRuns = regexp.MustCompile(`\s*,[\s,]*`)
)

// addressRule captures up to five lines after an address label, stopping at a
// blank line or at the first keyword of another field, and folds them into one line.
func addressRule() Rule {
	return Rule{
		Field: constants.FieldAddress,
		Find: func(d *Document) (string, bool) {
			for _, loc := range reAddressLabel.FindAllStringIndex(d.Raw, -1) {
				if v, ok := boundedAddress(d.Raw[loc[1]:]); ok {
					return v, true
				}
			}
			return "", false
		},
	}
}

func boundedAddress(rest string) (string, bool) {
	lines := strings.Split(rest, "\n")
	var parts []string
	for i, line := range lines {
		if len(parts) == maxAddressLines {
			break
		}
		if i == 0 {
			line = reLeadSep.ReplaceAllString(line, "")
			if strings.TrimSpace(line) == "" {
				continue
			}
		} else if strings.TrimSpace(line) == "" {
			break
		}
		loc := reFieldKeyword.FindStringIndex(line)
		if loc != nil {
			line = line[:loc[0]]
		}
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
		if loc != nil {
			break
		}
	}
	v := strings.Join(parts, ", ")
	v = reWhitespace.ReplaceAllString(v, " ")
	v = reCommaRuns.ReplaceAllString(v, ", ")
	v = strings.Trim(v, " ,")
	if len([]rune(v)) < minAddressLength {
		return "", false
	}
	return v, true
}

func pincodeRules() []Rule {
	return []Rule{
		{
			Field:    constants.FieldPincode,
			Pattern:  regexp.MustCompile(`(?i)(?:\bPIN(?:\s*CODE)?|पिन(?:\s*कोड)?)\s*[:\-.]?\s*([1-9]\d{2}\s?\d{3})\b`),
			Validate: pincode,
		},
		{
			Field:    constants.FieldPincode,
			Pattern:  regexp.MustCompile(`\b([1-9]\d{5})\b`),
			Validate: pincode,
		},
	}
}

var indianStates = []string{
	"ANDHRA PRADESH", "ARUNACHAL PRADESH", "ASSAM", "BIHAR", "CHHATTISGARH", "GOA", "GUJARAT",
	"HARYANA", "HIMACHAL PRADESH", "JHARKHAND", "KARNATAKA", "KERALA", "MADHYA PRADESH",
	"MAHARASHTRA", "MANIPUR", "MEGHALAYA", "MIZORAM", "NAGALAND", "ODISHA", "ORISSA", "PUNJAB",
	"RAJASTHAN", "SIKKIM", "TAMIL NADU", "TELANGANA", "TRIPURA", "UTTAR PRADESH", "UTTARAKHAND",
	"WEST BENGAL", "ANDAMAN AND NICOBAR", "CHANDIGARH", "DADRA AND NAGAR HAVELI", "DAMAN AND DIU",
	"DELHI", "JAMMU AND KASHMIR", "LADAKH", "LAKSHADWEEP", "PUDUCHERRY",
}

var reState = regexp.MustCompile(`\b(` + strings.Join(indianStates, "|") + `)\b`)

// stateRule picks the earliest state or union territory named in the text.
func stateRule() Rule {
	return Rule{
		Field:   constants.FieldState,
		Source:  SourceUpper,
		Pattern: reState,
		Validate: func(c Candidate) (string, bool) {
			return strings.Join(strings.Fields(c.Value), " "), true
		},
	}
}

// districtRule reads the value after a "Dist"/"District" label up to the
// first comma.
func districtRule() Rule {
	return Rule{
		Field: constants.FieldDistrict,
		Label: regexp.MustCompile(`(?i)\bDist(?:rict)?\b\.?|जिला`),
		Validate: func(c Candidate) (string, bool) {
			v := c.Value
			if i := strings.IndexAny(v, ",;"); i >= 0 {
				v = v[:i]
			}
			return cleanPlace(v)
		},
	}
}

var issueCities = []string{
	"DEHRADUN", "DELHI", "MUMBAI", "KOLKATA", "CHENNAI", "BANGALORE", "BENGALURU", "HYDERABAD",
	"PUNE", "AHMEDABAD", "JAIPUR", "LUCKNOW", "KANPUR", "NAGPUR", "INDORE", "THANE", "BHOPAL",
	"VISAKHAPATNAM", "PATNA", "VADODARA", "GHAZIABAD", "LUDHIANA", "AGRA", "NASHIK", "FARIDABAD",
	"MEERUT", "RAJKOT", "VARANASI", "SRINAGAR", "AMRITSAR", "NOIDA", "RANCHI", "CHANDIGARH",
	"JABALPUR", "GWALIOR", "RAIPUR", "KOTA", "BAREILLY", "MORADABAD", "MYSORE", "GURGAON",
	"ALIGARH", "JALANDHAR", "TIRUCHIRAPALLI", "BHUBANESWAR", "SALEM", "WARANGAL",
	"THIRUVANANTHAPURAM", "COCHIN", "KOZHIKODE", "MADURAI", "GUWAHATI", "JAMMU", "SHIMLA",
	"PANAJI", "SURAT", "JODHPUR", "SAHARANPUR", "DUBAI",
}

func placeOfIssueRules() []Rule {
	return []Rule{
		{
			Field: constants.FieldPlaceOfIssue,
			Label: regexp.MustCompile(`(?i)Place\s+of\s+Issue|जारी\s+करने\s+का\s+स्थान`),
			Validate: func(c Candidate) (string, bool) {
				v, ok := cleanPlace(c.Value)
				return strings.ToUpper(v), ok
			},
		},
		{
			Field:   constants.FieldPlaceOfIssue,
			Source:  SourceUpper,
			Pattern: regexp.MustCompile(`\b(` + strings.Join(issueCities, "|") + `)\b`),
		},
	}
}

var rePlace = regexp.MustCompile(`^[A-Za-z][A-Za-z .'-]*`)

// cleanPlace keeps the leading run of letters, spaces and punctuation.
func cleanPlace(v string) (string, bool) {
	m := strings.TrimSpace(rePlace.FindString(strings.TrimSpace(v)))
	m = strings.TrimRight(m, " .-")
	if len(m) < 3 {
		return "", false
	}
	return m, true
}

var (
	reNationality = regexp.MustCompile(`(?i)Nationality[^\p{L}\n]*\n?[^\p{L}\n]*(?:Indian|India)\b|भारतीय`)
	reMRZIssuer   = regexp.MustCompile(`P<IND`)
)

func nationalityRule() Rule {
	return Rule{
		Field: constants.FieldNationality,
		Find: func(d *Document) (string, bool) {
			if reNationality.MatchString(d.Raw) || reMRZIssuer.MatchString(d.Upper) {
				return "Indian", true
			}
			return "", false
		},
	}
}

func genderRules() []Rule {
	return []Rule{
		{
			Field:    constants.FieldGender,
			Label:    regexp.MustCompile(`(?i)\bGender\b|\bSex\b|लिंग`),
			Validate: genderValue,
		},
		{
			Field:    constants.FieldGender,
			Pattern:  regexp.MustCompile(`(?i)\bFEMALE\b|\bMALE\b|\bTRANSGENDER\b|पुरुष|महिला`),
			Validate: genderValue,
		},
	}
}

func constituencyRule() Rule {
	return Rule{
		Field: constants.FieldConstituency,
		Label: regexp.MustCompile(`(?i)Assembly\s+Constituency(?:\s+No\.?\s*(?:&|and)\s*Name)?|\bConstituency\b|\bAssembly\b`),
		Validate: func(c Candidate) (string, bool) {
			v := strings.TrimSpace(strings.TrimLeft(c.Value, "0123456789 -:."))
			if len(v) < 3 {
				return "", false
			}
			return v, true
		},
	}
}
