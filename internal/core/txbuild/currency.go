package txbuild

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// The ledger accepts exactly two currency-code encodings: a 3-character
// standard code, or a 40-character hex string for a 160-bit code. A
// code in any other form is rejected by the ledger outright, so
// normalization has to be exact.
const (
	standardCodeLen = 3
	hexCodeLen      = 40
)

// NormalizeCurrencyCode converts a user-supplied token code into one of
// the two ledger encodings:
//   - length <= 3: NUL-padded to exactly 3 characters
//   - length 40, valid hex: passed through uppercased
//   - anything else: hex of the ASCII bytes, zero-padded to 40
func NormalizeCurrencyCode(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("%w: empty currency code", ErrBadCurrency)
	}
	for i := 0; i < len(code); i++ {
		if code[i] > 0x7e || code[i] < 0x21 {
			return "", fmt.Errorf("%w: currency code %q contains non-printable character", ErrBadCurrency, code)
		}
	}

	if len(code) <= standardCodeLen {
		padded := code + strings.Repeat("\x00", standardCodeLen-len(code))
		return padded[:standardCodeLen], nil
	}

	if len(code) == hexCodeLen {
		if _, err := hex.DecodeString(code); err != nil {
			return "", fmt.Errorf("%w: 40-character code %q is not hexadecimal", ErrBadCurrency, code)
		}
		return strings.ToUpper(code), nil
	}

	encoded := strings.ToUpper(hex.EncodeToString([]byte(code)))
	if len(encoded) > hexCodeLen {
		return "", fmt.Errorf("%w: currency code %q encodes to %d hex characters, above the 160-bit limit", ErrBadCurrency, code, len(encoded))
	}
	return encoded + strings.Repeat("0", hexCodeLen-len(encoded)), nil
}
