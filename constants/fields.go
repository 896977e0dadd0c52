package constants

// FieldName keys the extracted field map.
type FieldName string

const (
	FieldHolderName     FieldName = "name"
	FieldIDNumber       FieldName = "idNumber"
	FieldAadhaarNumber  FieldName = "aadhaarNumber"
	FieldPANNumber      FieldName = "panNumber"
	FieldPassportNumber FieldName = "passportNumber"
	FieldDateOfBirth    FieldName = "dateOfBirth"
	FieldGender         FieldName = "gender"
	FieldAddress        FieldName = "address"
	FieldFatherName     FieldName = "fatherName"
	FieldHusbandName    FieldName = "husbandName"
	FieldNationality    FieldName = "nationality"
	FieldIssueDate      FieldName = "issueDate"
	FieldExpiryDate     FieldName = "expiryDate"
	FieldPlaceOfIssue   FieldName = "placeOfIssue"
	FieldDistrict       FieldName = "district"
	FieldState          FieldName = "state"
	FieldPincode        FieldName = "pincode"
	FieldConstituency   FieldName = "constituency"
)

// DateFields are the fields that draw from the shared date pool.
var DateFields = []FieldName{FieldDateOfBirth, FieldIssueDate, FieldExpiryDate}

// IsDateField reports whether f is date-valued.
func (f FieldName) IsDateField() bool {
	for _, d := range DateFields {
		if f == d {
			return true
		}
	}
	return false
}

// IdentifierField returns the field holding the primary document number for t.
func IdentifierField(t DocumentType) FieldName {
	switch t {
	case Aadhaar:
		return FieldAadhaarNumber
	case PAN:
		return FieldPANNumber
	case Passport:
		return FieldPassportNumber
	default:
		return FieldIDNumber
	}
}
