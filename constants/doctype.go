package constants

import (
	"strings"
)

// DocumentType is the closed set of identity documents the pipeline recognizes.
type DocumentType string

const (
	Aadhaar        DocumentType = "aadhaar"
	Passport       DocumentType = "passport"
	PAN            DocumentType = "pan"
	DrivingLicense DocumentType = "driving_license"
	VoterID        DocumentType = "voter_id"
	Other          DocumentType = "other"
)

var allDocumentTypes = []DocumentType{
	Aadhaar,
	Passport,
	PAN,
	DrivingLicense,
	VoterID,
	Other,
}

// DocumentTypes returns every supported type, catch-all last.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(allDocumentTypes))
	copy(out, allDocumentTypes)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// IsValid reports whether t is one of the enumerated types.
func (t DocumentType) IsValid() bool {
	for _, dt := range allDocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Label is the human readable name used in exports.
func (t DocumentType) Label() string {
	switch t {
	case Aadhaar:
		return "Aadhaar Card"
	case Passport:
		return "Passport"
	case PAN:
		return "PAN Card"
	case DrivingLicense:
		return "Driving License"
	case VoterID:
		return "Voter ID"
	default:
		return "Other"
	}
}

// CanonicalizeDocumentType maps loose spellings ("Driving License", "voter-id", "PAN")
// onto the enum. Unknown input maps to Other.
func CanonicalizeDocumentType(s string) DocumentType {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("-", "_", " ", "_").Replace(k)
	switch k {
	case "aadhaar", "aadhar", "aadhaar_card":
		return Aadhaar
	case "passport":
		return Passport
	case "pan", "pan_card":
		return PAN
	case "driving_license", "driving_licence", "dl":
		return DrivingLicense
	case "voter_id", "voter", "epic":
		return VoterID
	default:
		return Other
	}
}
