package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"strconv"

	"krakenkit/pkg/core"
)

// Signature is the signed form of one request body. Nonce-bound, so never reuse it.
type Signature struct {
	// BodyData is the exact body that was signed and must be sent.
	BodyData string
	// Signature is the base64 value of the API-Sign header.
	Signature string
}

// Sign computes Kraken's API-Sign value:
//
//	base64(HMAC-SHA512(base64decode(secret), endpoint + SHA256(nonce + body)))
//
// It fails with core.ErrInvalidSecretEncoding when secret is not base64.
func Sign(nonce uint64, secret, endpoint, body string) (Signature, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %v", core.ErrInvalidSecretEncoding, err)
	}

	digest := sha256.Sum256([]byte(strconv.FormatUint(nonce, 10) + body))

	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(endpoint))
	mac.Write(digest[:])

	return Signature{
		BodyData:  body,
		Signature: base64.StdEncoding.EncodeToString(mac.Sum(nil)),
	}, nil
}
