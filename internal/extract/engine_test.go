package extract

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docscan/constants"
)

func TestExtract_AadhaarFront(t *testing.T) {
	raw := "GOVERNMENT OF INDIA\nAADHAAR\nName: RAVI KUMAR\nDOB: 01/01/1990\n1234 5678 9012"

	got := Extract(raw, constants.Aadhaar)

	assert.Equal(t, Fields{
		constants.FieldAadhaarNumber: "1234 5678 9012",
		constants.FieldHolderName:    "RAVI KUMAR",
		constants.FieldDateOfBirth:   "01/01/1990",
	}, got)
}

func TestExtract_AadhaarBack(t *testing.T) {
	raw := "Address: S/O RAM KUMAR, 12 MG Road,\nSector 5, Lucknow,\nUttar Pradesh - 226001\n\n1234 5678 9012"

	got := Extract(raw, constants.Aadhaar)

	assert.Equal(t, "S/O RAM KUMAR, 12 MG Road, Sector 5, Lucknow, Uttar Pradesh - 226001", got[constants.FieldAddress])
	assert.Equal(t, "RAM KUMAR", got[constants.FieldFatherName])
	assert.Equal(t, "226001", got[constants.FieldPincode])
	assert.Equal(t, "UTTAR PRADESH", got[constants.FieldState])
	assert.Equal(t, "1234 5678 9012", got[constants.FieldAadhaarNumber])
	assert.NotContains(t, got, constants.FieldHolderName)
}

func TestExtract_AadhaarIgnoresVID(t *testing.T) {
	got := Extract("VID: 9123 4567 8901 2345", constants.Aadhaar)
	assert.NotContains(t, got, constants.FieldAadhaarNumber)
}

func TestExtract_PassportNoisyNumber(t *testing.T) {
	raw := "REPUBLIC OF INDIA\nP<INDKUMAR<<RAVI<<<<<<<<\nJ = $3879331"

	got := Extract(raw, constants.Passport)

	assert.Equal(t, "3879331", got[constants.FieldPassportNumber])
	assert.Equal(t, "RAVI KUMAR", got[constants.FieldHolderName])
	assert.Equal(t, "Indian", got[constants.FieldNationality])
}

func TestExtract_PassportLabelled(t *testing.T) {
	raw := strings.Join([]string{
		"Passport No. J = $3879331",
		"Surname",
		"SHARMA",
		"Given Name(s)",
		"ROHIT",
		"Nationality: INDIAN",
		"Sex: M",
		"Date of Birth: 15/03/1985",
		"Place of Issue: DELHI",
		"Date of Issue: 10/02/2015",
		"Date of Expiry: 09/02/2025",
	}, "\n")

	got := Extract(raw, constants.Passport)

	assert.Equal(t, "3879331", got[constants.FieldPassportNumber])
	assert.Equal(t, "ROHIT SHARMA", got[constants.FieldHolderName])
	assert.Equal(t, "Indian", got[constants.FieldNationality])
	assert.Equal(t, "Male", got[constants.FieldGender])
	assert.Equal(t, "DELHI", got[constants.FieldPlaceOfIssue])
	assert.Equal(t, "15/03/1985", got[constants.FieldDateOfBirth])
	assert.Equal(t, "10/02/2015", got[constants.FieldIssueDate])
	assert.Equal(t, "09/02/2025", got[constants.FieldExpiryDate])
}

func TestExtract_DatesByKeywordThenBucket(t *testing.T) {
	raw := "DRIVING LICENCE\n15/03/1985\nValid Till: 20/06/2018"

	for _, dt := range []constants.DocumentType{constants.DrivingLicense, constants.Passport} {
		got := Extract(raw, dt)
		assert.Equal(t, "15/03/1985", got[constants.FieldDateOfBirth], dt)
		assert.Equal(t, "20/06/2018", got[constants.FieldExpiryDate], dt)
		assert.NotContains(t, got, constants.FieldIssueDate, dt)
	}
}

func TestExtract_DateKeywordAfter(t *testing.T) {
	got := Extract("12/12/2000 (DOB)", constants.Other)
	assert.Equal(t, "12/12/2000", got[constants.FieldDateOfBirth])

	got = Extract("Joined 01/01/1990", constants.Other)
	assert.NotContains(t, got, constants.FieldDateOfBirth)
}

func TestExtract_NoDates(t *testing.T) {
	raw := "GOVERNMENT OF INDIA\nName: RAVI KUMAR\nDOB: unknown\n1234 5678 9012\n31/13/2020 99/99/9999"

	for _, dt := range constants.DocumentTypes() {
		got := Extract(raw, dt)
		for _, f := range constants.DateFields {
			assert.NotContains(t, got, f, "%s: %s", dt, f)
		}
	}
}

func TestExtract_DateExclusivity(t *testing.T) {
	prefixes := []string{"DOB: ", "Date of Issue: ", "Valid Till: ", "Expiry ", "Issued ", "", "Ref "}
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 500; i++ {
		n := 2 + rng.IntN(3)
		seen := map[string]bool{}
		var drawn []string
		var lines []string
		for len(lines) < n {
			d := fmt.Sprintf("%02d/%02d/%d", 1+rng.IntN(28), 1+rng.IntN(12), 1930+rng.IntN(130))
			if len(drawn) > 0 && rng.IntN(3) == 0 {
				d = drawn[rng.IntN(len(drawn))]
			}
			seen[d] = true
			drawn = append(drawn, d)
			lines = append(lines, prefixes[rng.IntN(len(prefixes))]+d)
		}
		raw := strings.Join(lines, "\n")

		for _, dt := range constants.DocumentTypes() {
			got := Extract(raw, dt)
			used := map[string]constants.FieldName{}
			for _, f := range constants.DateFields {
				v, ok := got[f]
				if !ok {
					continue
				}
				require.True(t, seen[v], "%s not in input %q", v, raw)
				prev, dup := used[v]
				require.False(t, dup, "%q assigned to %s and %s in %q", v, prev, f, raw)
				used[v] = f
			}
		}
	}
}

func TestExtract_RepeatedDateFillsOneField(t *testing.T) {
	raw := "DRIVING LICENCE\nDate of Issue: 01/06/2015\nValid Till: 01/06/2015\nDOB: 12/12/1980"

	got := Extract(raw, constants.DrivingLicense)

	assert.Equal(t, "01/06/2015", got[constants.FieldIssueDate])
	assert.NotContains(t, got, constants.FieldExpiryDate)
	assert.Equal(t, "12/12/1980", got[constants.FieldDateOfBirth])
}

func TestExtract_PAN(t *testing.T) {
	raw := "INCOME TAX DEPARTMENT\nGOVT. OF INDIA\nRAHUL SHARMA\nSURESH SHARMA\n15/08/1990\nPermanent Account Number\nABCDE1234F"

	got := Extract(raw, constants.PAN)

	assert.Equal(t, "ABCDE1234F", got[constants.FieldPANNumber])
	assert.Equal(t, "RAHUL SHARMA", got[constants.FieldHolderName])
	assert.Equal(t, "SURESH SHARMA", got[constants.FieldFatherName])
	assert.Equal(t, "15/08/1990", got[constants.FieldDateOfBirth])
}

func TestExtract_PANLabelledFather(t *testing.T) {
	raw := "INCOME TAX DEPARTMENT\nName\nRAHUL SHARMA\nFather's Name\nSURESH SHARMA\nPAN: ABCDE1234F"

	got := Extract(raw, constants.PAN)

	assert.Equal(t, "RAHUL SHARMA", got[constants.FieldHolderName])
	assert.Equal(t, "SURESH SHARMA", got[constants.FieldFatherName])
	assert.Equal(t, "ABCDE1234F", got[constants.FieldPANNumber])
}

func TestExtract_DrivingLicense(t *testing.T) {
	raw := strings.Join([]string{
		"INDIAN UNION DRIVING LICENCE",
		"DL No: MH01 20190001234",
		"Name: ANIL MEHTA",
		"S/O: SURESH MEHTA",
		"DOB: 12/05/1988",
		"Date of Issue: 10/01/2019",
		"Valid Till: 09/01/2039",
	}, "\n")

	got := Extract(raw, constants.DrivingLicense)

	assert.Equal(t, "MH0120190001234", got[constants.FieldIDNumber])
	assert.Equal(t, "ANIL MEHTA", got[constants.FieldHolderName])
	assert.Equal(t, "SURESH MEHTA", got[constants.FieldFatherName])
	assert.Equal(t, "12/05/1988", got[constants.FieldDateOfBirth])
	assert.Equal(t, "10/01/2019", got[constants.FieldIssueDate])
	assert.Equal(t, "09/01/2039", got[constants.FieldExpiryDate])
}

func TestExtract_VoterID(t *testing.T) {
	raw := strings.Join([]string{
		"ELECTION COMMISSION OF INDIA",
		"IDENTITY CARD",
		"ABC1234567",
		"Elector's Name: SITA DEVI",
		"Husband's Name: RAM PRASAD",
		"Gender: Female",
		"Assembly Constituency No. & Name: 123 - Lucknow Central",
	}, "\n")

	got := Extract(raw, constants.VoterID)

	assert.Equal(t, "ABC1234567", got[constants.FieldIDNumber])
	assert.Equal(t, "SITA DEVI", got[constants.FieldHolderName])
	assert.Equal(t, "RAM PRASAD", got[constants.FieldHusbandName])
	assert.Equal(t, "Female", got[constants.FieldGender])
	assert.Equal(t, "Lucknow Central", got[constants.FieldConstituency])
	assert.NotContains(t, got, constants.FieldFatherName)
}

func TestExtract_BilingualNameLabel(t *testing.T) {
	got := Extract("नाम / Name\nRAHUL SHARMA", constants.Other)
	assert.Equal(t, "RAHUL SHARMA", got[constants.FieldHolderName])
}

func TestExtract_AddressBounds(t *testing.T) {
	got := Extract("Address: 12 MG Road\nLucknow\nDOB: 01/01/1990", constants.Other)
	assert.Equal(t, "12 MG Road, Lucknow", got[constants.FieldAddress])

	got = Extract("Address: Flat 1", constants.Other)
	assert.NotContains(t, got, constants.FieldAddress)
}

func TestExtract_AddressStopsAtInlineKeyword(t *testing.T) {
	got := Extract("AADHAAR\nAddress: 12 MG Road, New Delhi 110001 Gender: Male DOB: 01/01/1990", constants.Aadhaar)
	assert.Equal(t, "12 MG Road, New Delhi 110001", got[constants.FieldAddress])
	assert.Equal(t, "01/01/1990", got[constants.FieldDateOfBirth])

	got = Extract("Address: 7 Park Street,\nKolkata 700016, Mobile 9876543210", constants.Other)
	assert.Equal(t, "7 Park Street, Kolkata 700016", got[constants.FieldAddress])
}

func TestExtract_District(t *testing.T) {
	raw := "Address: 5 Civil Lines\nDist: Lucknow, Uttar Pradesh"

	aadhaar := Extract(raw, constants.Aadhaar)
	assert.Equal(t, "Lucknow", aadhaar[constants.FieldDistrict])
	assert.Equal(t, "UTTAR PRADESH", aadhaar[constants.FieldState])

	voter := Extract(raw, constants.VoterID)
	assert.Equal(t, "Lucknow", voter[constants.FieldDistrict])

	assert.NotContains(t, Extract(raw, constants.PAN), constants.FieldDistrict)
}

func TestExtract_UnknownTypeUsesOther(t *testing.T) {
	got := Extract("Name: RAVI KUMAR", constants.DocumentType("ration_card"))
	assert.Equal(t, Fields{constants.FieldHolderName: "RAVI KUMAR"}, got)
}

var nameLabelRe = regexp.MustCompile(`Name`)

func TestEngine_KeepsFieldsOnPanic(t *testing.T) {
	e := NewEngine(nil, WithExtractor(constants.Other, Extractor{
		Rules: []Rule{
			{Field: constants.FieldHolderName, Label: nameLabelRe},
			{Field: constants.FieldAddress, Find: func(*Document) (string, bool) { panic("boom") }},
			{Field: constants.FieldGender, Pattern: nameLabelRe},
		},
	}))

	var got Fields
	require.NotPanics(t, func() { got = e.Extract("Name: RAVI", constants.Other) })
	assert.Equal(t, Fields{constants.FieldHolderName: "RAVI"}, got)
}

func TestExtract_NeverPanics(t *testing.T) {
	inputs := []string{"", "\n\n\n", "Name:", "Address:", "P<", "S/O", "नाम", strings.Repeat("1234 ", 1000), "\x00\xff\xfe"}
	for _, in := range inputs {
		for _, dt := range constants.DocumentTypes() {
			assert.NotPanics(t, func() { Extract(in, dt) })
		}
	}
}
