package model

import (
	"errors"
	"testing"
)

func TestNormalizeMac(t *testing.T) {
	cases := map[string]string{
		"AA:BB:CC:DD:EE:FF": "AABBCCDDEEFF",
		"aa-bb-cc-dd-ee-ff": "aabbccddeeff",
		"aabb.ccdd.eeff":    "aabbccddeeff",
		"AABBCCDDEEFF":      "AABBCCDDEEFF",
		"":                  "",
	}
	for in, want := range cases {
		if got := NormalizeMac(in); got != want {
			t.Errorf("NormalizeMac(%q) = %q, want %q", in, got, want)
		}
	}
}

func validationCode(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return ve.Code
}

func TestValidateItemFields(t *testing.T) {
	strict := &ProductCategory{Name: "Routers", RequiresSerialNumber: true, RequiresMacAddress: true}
	loose := &ProductCategory{Name: "Cables"}

	serial, mac, err := ValidateItemFields(strict, "  SN-001  ", "AA:BB:CC:DD:EE:FF")
	if err != nil {
		t.Fatalf("valid fields rejected: %v", err)
	}
	if serial != "SN-001" {
		t.Errorf("serial = %q, want trimmed SN-001", serial)
	}
	if mac != "AABBCCDDEEFF" {
		t.Errorf("mac = %q, want normalized AABBCCDDEEFF", mac)
	}

	_, _, err = ValidateItemFields(strict, "", "AABBCCDDEEFF")
	if code := validationCode(t, err); code != CodeMissingSerial {
		t.Errorf("missing serial: code = %s, want %s", code, CodeMissingSerial)
	}

	_, _, err = ValidateItemFields(strict, "SN-001", "")
	if code := validationCode(t, err); code != CodeMissingMac {
		t.Errorf("missing mac: code = %s, want %s", code, CodeMissingMac)
	}

	_, _, err = ValidateItemFields(strict, "SN-001", "AABBCC")
	if code := validationCode(t, err); code != CodeInvalidMacFormat {
		t.Errorf("short mac: code = %s, want %s", code, CodeInvalidMacFormat)
	}

	_, _, err = ValidateItemFields(strict, "SN-001", "ZZ:BB:CC:DD:EE:FF")
	if code := validationCode(t, err); code != CodeInvalidMacFormat {
		t.Errorf("non-hex mac: code = %s, want %s", code, CodeInvalidMacFormat)
	}

	// A loose category accepts empty fields but still rejects a malformed MAC.
	if _, _, err := ValidateItemFields(loose, "", ""); err != nil {
		t.Errorf("loose category rejected empty fields: %v", err)
	}
	_, _, err = ValidateItemFields(loose, "", "nothex")
	if code := validationCode(t, err); code != CodeInvalidMacFormat {
		t.Errorf("loose category malformed mac: code = %s, want %s", code, CodeInvalidMacFormat)
	}
}
