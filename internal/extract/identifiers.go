package extract

import (
	"regexp"
	"strings"
)

var (
	// artifacts are symbols recognition engines substitute into identifiers.
	artifacts     = strings.NewReplacer("$", "", "=", "", ":", "", "₹", "", "€", "", "£", "", "-", "", " ", "", "\t", "", "\n", "")
	reDigits79    = regexp.MustCompile(`\d{7,9}`)
	reNonDigit    = regexp.MustCompile(`\D`)
	reDigitLead   = regexp.MustCompile(`^[ \t-]?\d`)
	reDigitTrail  = regexp.MustCompile(`\d[ \t-]?$`)
	reVIDLabel    = regexp.MustCompile(`(?i)\bVID\b[^\n]{0,6}$`)
	rePAN         = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
	reDL          = regexp.MustCompile(`^[A-Z]{2}\d{13}$`)
	reEPIC        = regexp.MustCompile(`^[A-Z]{3}\d{7}$`)
	toDigit       = map[byte]byte{'O': '0', 'D': '0', 'Q': '0', 'I': '1', 'L': '1', 'S': '5', 'B': '8', 'Z': '2'}
	toLetter      = map[byte]byte{'0': 'O', '1': 'I', '5': 'S', '8': 'B', '2': 'Z'}
)

func stripArtifacts(s string) string {
	return artifacts.Replace(strings.TrimSpace(s))
}

// passportNumber keeps the 7 to 9 digit run after dropping symbols and a
// misread leading letter.
func passportNumber(c Candidate) (string, bool) {
	v := strings.ToUpper(stripArtifacts(c.Value))
	m := reDigits79.FindString(v)
	if m == "" {
		return "", false
	}
	return m, true
}

// aadhaarNumber accepts exactly twelve digits not embedded in a longer digit
// run (a 16-digit VID) and formats them as "XXXX XXXX XXXX".
func aadhaarNumber(c Candidate) (string, bool) {
	if reDigitLead.MatchString(c.After(2)) || reDigitTrail.MatchString(c.Before(2)) {
		return "", false
	}
	if reVIDLabel.MatchString(c.Before(16)) {
		return "", false
	}
	d := reNonDigit.ReplaceAllString(c.Value, "")
	if len(d) != 12 {
		return "", false
	}
	return d[0:4] + " " + d[4:8] + " " + d[8:12], true
}

// repair rewrites characters that should be digits (or letters) according to
// layout, where 'd' marks a digit position and 'a' a letter position.
func repair(v, layout string) string {
	if len(v) != len(layout) {
		return v
	}
	b := []byte(v)
	for i := range b {
		switch layout[i] {
		case 'd':
			if r, ok := toDigit[b[i]]; ok {
				b[i] = r
			}
		case 'a':
			if r, ok := toLetter[b[i]]; ok {
				b[i] = r
			}
		}
	}
	return string(b)
}

func panNumber(c Candidate) (string, bool) {
	v := repair(strings.ToUpper(stripArtifacts(c.Value)), "aaaaadddda")
	return v, rePAN.MatchString(v)
}

func drivingLicenceNumber(c Candidate) (string, bool) {
	v := repair(strings.ToUpper(stripArtifacts(c.Value)), "aaddddddddddddd")
	return v, reDL.MatchString(v)
}

func epicNumber(c Candidate) (string, bool) {
	v := repair(strings.ToUpper(stripArtifacts(c.Value)), "aaaddddddd")
	return v, reEPIC.MatchString(v)
}

func pincode(c Candidate) (string, bool) {
	if reDigitLead.MatchString(c.After(2)) || reDigitTrail.MatchString(c.Before(2)) {
		return "", false
	}
	d := reNonDigit.ReplaceAllString(c.Value, "")
	if len(d) != 6 || d[0] == '0' {
		return "", false
	}
	return d, true
}

// genderValue normalizes M/F/T, English words and Hindi words.
func genderValue(c Candidate) (string, bool) {
	v := strings.TrimSpace(c.Value)
	switch {
	case strings.HasPrefix(v, "पुरुष"):
		return "Male", true
	case strings.HasPrefix(v, "महिला"):
		return "Female", true
	}
	fields := strings.Fields(strings.ToUpper(v))
	if len(fields) == 0 {
		return "", false
	}
	switch strings.Trim(fields[0], ".,/") {
	case "M", "MALE":
		return "Male", true
	case "F", "FEMALE":
		return "Female", true
	case "T", "TRANSGENDER":
		return "Transgender", true
	}
	return "", false
}
