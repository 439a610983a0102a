package tor

import (
	"encoding/base32"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// OnionSuffix ends every hidden service hostname.
const OnionSuffix = ".onion"

const onionV3Version = 0x03

// ErrInvalidOnionAddress is returned for .onion hosts that are not valid
// v3 addresses. v2 addresses stopped working in 2021 and are rejected too.
var ErrInvalidOnionAddress = errors.New("invalid onion address")

// onionV3Pattern is 56 base32 characters followed by .onion.
var onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)

// checksumPrefix is the constant prefix hashed into the v3 checksum.
var checksumPrefix = []byte(".onion checksum")

// IsOnionHost reports whether host is in the .onion TLD.
// A port, if present, is ignored.
func IsOnionHost(host string) bool {
	host = strings.ToLower(stripPort(host))
	return strings.HasSuffix(host, OnionSuffix)
}

// IsValidV3Address validates format, version byte and checksum of a v3
// onion address such as "<56 chars>.onion". Case is ignored.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(decoded) != 35 {
		return false
	}

	// pubkey (32) | checksum (2) | version (1)
	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return false
	}
	want := v3Checksum(pubkey, version)
	return checksum[0] == want[0] && checksum[1] == want[1]
}

// ValidateHost returns ErrInvalidOnionAddress when host is a .onion name
// that is not a valid v3 address. Non-onion hosts always pass. Subdomains
// of an onion service are allowed.
func ValidateHost(host string) error {
	if !IsOnionHost(host) {
		return nil
	}
	host = strings.ToLower(stripPort(host))
	labels := strings.Split(strings.TrimSuffix(host, OnionSuffix), ".")
	if !IsValidV3Address(labels[len(labels)-1] + OnionSuffix) {
		return ErrInvalidOnionAddress
	}
	return nil
}

func v3Checksum(pubkey []byte, version byte) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pubkey)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)
	return sum[:2]
}

func stripPort(host string) string {
	if i := strings.LastIndexByte(host, ':'); i != -1 && !strings.Contains(host[i:], "]") {
		return host[:i]
	}
	return host
}
