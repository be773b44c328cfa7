package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"crossview/internal/globaltime"
)

// Request signing for the ingest endpoints. The string to sign is
//
//	keyId \n ts \n nonce \n METHOD \n path \n sha256hex(body)
//
// and the signature travels base64-encoded in X-API-SIG alongside
// X-API-KEY, X-API-TS and X-API-NONCE.
const (
	HeaderAPIKey   = "X-API-KEY"
	HeaderAPITS    = "X-API-TS"
	HeaderAPINonce = "X-API-NONCE"
	HeaderAPISig   = "X-API-SIG"
)

type SignedHeaders struct {
	KeyID     string
	Timestamp string
	Nonce     string
	Signature string
}

// Sign produces the four auth headers for an outgoing ingest request.
func Sign(keyID, secret, method, path string, body []byte) (SignedHeaders, error) {
	if strings.TrimSpace(keyID) == "" {
		return SignedHeaders{}, fmt.Errorf("keyID is required")
	}
	if strings.TrimSpace(secret) == "" {
		return SignedHeaders{}, fmt.Errorf("secret is required")
	}

	ts := strconv.FormatInt(globaltime.UTC().Unix(), 10)
	nonce := uuid.NewString()
	return SignedHeaders{
		KeyID:     keyID,
		Timestamp: ts,
		Nonce:     nonce,
		Signature: Compute(keyID, secret, ts, nonce, method, path, body),
	}, nil
}

// Compute returns the base64 HMAC-SHA256 signature for the given request parts.
func Compute(keyID, secret, ts, nonce, method, path string, body []byte) string {
	bodyHash := sha256.Sum256(body)
	toSign := strings.Join([]string{
		keyID,
		ts,
		nonce,
		strings.ToUpper(method),
		path,
		hex.EncodeToString(bodyHash[:]),
	}, "\n")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(toSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the signature and compares in constant time.
func VerifySignature(h SignedHeaders, secret, method, path string, body []byte) bool {
	expected := Compute(h.KeyID, secret, h.Timestamp, h.Nonce, method, path, body)
	return hmac.Equal([]byte(expected), []byte(h.Signature))
}

// TimestampInSkew reports whether ts (epoch seconds) is within skewSecs of now.
func TimestampInSkew(ts string, skewSecs int) bool {
	parsed, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
	if err != nil {
		return false
	}
	delta := globaltime.UTC().Unix() - parsed
	if delta < 0 {
		delta = -delta
	}
	return delta <= int64(skewSecs)
}
