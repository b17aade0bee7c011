// Package payment implements the payment gateway's Instant Transaction
// Notification (ITN) contract: signature verification of server-to-server
// callbacks and activation of the paid-for vendor subscription.
package payment

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Signature computes the gateway signature over the callback fields: every
// field except "signature" sorted by name, URL-encoded as key=value pairs,
// joined with "&", with "&passphrase=<secret>" appended when a passphrase is
// configured, then MD5-hexed. The algorithm is fixed by the gateway's
// published contract.
func Signature(fields map[string]string, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "signature" {
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
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fields[k]))
	}
	if passphrase != "" {
		b.WriteString("&passphrase=")
		b.WriteString(url.QueryEscape(passphrase))
	}

	sum := md5.Sum([]byte(b.String()))

	return hex.EncodeToString(sum[:])
}

// VerifySignature checks the "signature" field of a callback against the
// recomputed digest.
func VerifySignature(fields map[string]string, passphrase string) bool {
	supplied, ok := fields["signature"]
	if !ok || supplied == "" {
		return false
	}

	return supplied == Signature(fields, passphrase)
}
