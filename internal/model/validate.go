package model

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError describes a rejected item field. Code is stable and
// machine-matchable; Message is for humans.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validation error codes.
const (
	CodeMissingSerial    = "MISSING_SERIAL"
	CodeMissingMac       = "MISSING_MAC"
	CodeInvalidMacFormat = "INVALID_MAC_FORMAT"
)

var macHex = regexp.MustCompile(`^[0-9a-fA-F]{12}$`)

// NormalizeMac strips common separator characters (colons, dashes, dots,
// whitespace) from a MAC address so stored values are comparable.
func NormalizeMac(mac string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', '.', ' ', '\t':
			return -1
		}
		return r
	}, mac)
}

// ValidateItemFields checks serial number and MAC address against a product
// category's requirements and returns the trimmed serial and normalized MAC.
// A malformed MAC is rejected even when the category does not require one.
// Pure function, no side effects.
func ValidateItemFields(cat *ProductCategory, serialNumber, macAddress string) (string, string, error) {
	serial := strings.TrimSpace(serialNumber)
	mac := NormalizeMac(macAddress)

	if cat.RequiresSerialNumber && serial == "" {
		return "", "", &ValidationError{
			Code:    CodeMissingSerial,
			Message: fmt.Sprintf("category %q requires a serial number", cat.Name),
		}
	}
	if cat.RequiresMacAddress && mac == "" {
		return "", "", &ValidationError{
			Code:    CodeMissingMac,
			Message: fmt.Sprintf("category %q requires a MAC address", cat.Name),
		}
	}
	if mac != "" && !macHex.MatchString(mac) {
		return "", "", &ValidationError{
			Code:    CodeInvalidMacFormat,
			Message: fmt.Sprintf("MAC address %q must be 12 hexadecimal characters", macAddress),
		}
	}

	return serial, mac, nil
}
