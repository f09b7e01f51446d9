package documents

import "fmt"

// DocType is the closed set of document categories the vault accepts.
type DocType string

const (
	DocTypeProof               DocType = "Proof"
	DocTypeAadhaarCard         DocType = "Aadhaar Card"
	DocTypePANCard             DocType = "PAN Card"
	DocTypeDrivingLicense      DocType = "Driving License"
	DocTypeVoterID             DocType = "Voter ID"
	DocTypeCertificate         DocType = "Certificate"
	DocTypeRationCard          DocType = "Ration Card"
	DocTypePassport            DocType = "Passport"
	DocTypeBirthCertificate    DocType = "Birth Certificate"
	DocTypeElectricityBill     DocType = "Electricity Bill"
	DocTypeIncomeCertificate   DocType = "Income Certificate"
	DocTypeCasteCertificate    DocType = "Caste Certificate"
	DocTypeDomicileCertificate DocType = "Domicile Certificate"
)

var docTypes = map[DocType]struct{}{
	DocTypeProof:               {},
	DocTypeAadhaarCard:         {},
	DocTypePANCard:             {},
	DocTypeDrivingLicense:      {},
	DocTypeVoterID:             {},
	DocTypeCertificate:         {},
	DocTypeRationCard:          {},
	DocTypePassport:            {},
	DocTypeBirthCertificate:    {},
	DocTypeElectricityBill:     {},
	DocTypeIncomeCertificate:   {},
	DocTypeCasteCertificate:    {},
	DocTypeDomicileCertificate: {},
}

// ParseDocType validates a raw document type at the boundary.
func ParseDocType(raw string) (DocType, error) {
	dt := DocType(raw)
	if _, ok := docTypes[dt]; !ok {
		return "", fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, raw)
	}
	return dt, nil
}
