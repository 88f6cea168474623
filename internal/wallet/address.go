package wallet

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidAddress indicates the supplied string is not a 20-byte hex address.
var ErrInvalidAddress = errors.New("invalid wallet address")

// Normalize returns the EIP-55 checksummed form of a wallet address. Input
// casing is ignored; only the hex payload matters.
func Normalize(address string) (string, error) {
	payload, err := hexPayload(address)
	if err != nil {
		return "", err
	}

	lower := strings.ToLower(payload)
	digest := keccak256([]byte(lower))

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}

	return "0x" + string(out), nil
}

// Equal reports whether two addresses name the same account. Checksum casing
// is ignored so a checksummed and a lower-cased rendering never miscompare.
func Equal(a, b string) bool {
	pa, err := hexPayload(a)
	if err != nil {
		return false
	}
	pb, err := hexPayload(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(pa, pb)
}

func hexPayload(address string) (string, error) {
	s := strings.TrimSpace(address)
	if len(s) < 2 || (s[:2] != "0x" && s[:2] != "0X") {
		return "", fmt.Errorf("%w: missing 0x prefix", ErrInvalidAddress)
	}
	s = s[2:]
	if len(s) != 40 {
		return "", fmt.Errorf("%w: expected 40 hex characters, got %d", ErrInvalidAddress, len(s))
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return "", fmt.Errorf("%w: non-hex character %q", ErrInvalidAddress, c)
		}
	}
	return s, nil
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
