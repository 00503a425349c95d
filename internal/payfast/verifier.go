package payfast

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// CanonicalString builds the parameter string PayFast signs: every
// non-empty field except "signature", sorted by key, form-encoded
// (spaces become '+'), joined with '&'. When a passphrase is supplied
// it is appended as a trailing passphrase parameter.
func CanonicalString(fields map[string]string, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == FieldSignature || v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(strings.TrimSpace(fields[k])))
	}
	if p := strings.TrimSpace(passphrase); p != "" {
		b.WriteString("&passphrase=")
		b.WriteString(url.QueryEscape(p))
	}
	return b.String()
}

// Sign computes the MD5 hex digest of the canonical parameter string.
func Sign(fields map[string]string, passphrase string) string {
	sum := md5.Sum([]byte(CanonicalString(fields, passphrase)))
	return hex.EncodeToString(sum[:])
}

// VerifySignature recomputes the signature from the notification fields
// and compares it against the signature the gateway sent. The received
// signature travels inside the form body, not a header.
func VerifySignature(fields map[string]string, passphrase string) (bool, string, string) {
	received := fields[FieldSignature]
	expected := Sign(fields, passphrase)
	ok := received != "" &&
		subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(received))) == 1
	return ok, expected, received
}
