package documents

import (
	"errors"
	"testing"
)

func TestParseDocTypeAcceptsKnownValues(t *testing.T) {
	for _, raw := range []string{
		"Proof",
		"Aadhaar Card",
		"PAN Card",
		"Passport",
		"Domicile Certificate",
	} {
		docType, err := ParseDocType(raw)
		if err != nil {
			t.Fatalf("ParseDocType(%q): %v", raw, err)
		}
		if string(docType) != raw {
			t.Fatalf("ParseDocType(%q) = %q", raw, docType)
		}
	}
}

func TestParseDocTypeRejectsUnknownValues(t *testing.T) {
	for _, raw := range []string{"", "pan card", "Tax Return", "aadhar"} {
		if _, err := ParseDocType(raw); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ParseDocType(%q): expected ErrInvalidInput, got %v", raw, err)
		}
	}
}
