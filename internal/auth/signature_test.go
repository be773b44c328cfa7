package auth

import (
	"strconv"
	"testing"
	"time"

	"crossview/internal/globaltime"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"sources":[]}`)

	headers, err := Sign("batch", "s3cret", "post", "/api/v1/sources/batch-upsert", body)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if headers.KeyID != "batch" || headers.Nonce == "" || headers.Timestamp == "" {
		t.Fatalf("incomplete headers: %+v", headers)
	}

	if !VerifySignature(headers, "s3cret", "POST", "/api/v1/sources/batch-upsert", body) {
		t.Fatalf("expected signature to verify")
	}
	if VerifySignature(headers, "wrong", "POST", "/api/v1/sources/batch-upsert", body) {
		t.Fatalf("did not expect signature to verify with wrong secret")
	}
	if VerifySignature(headers, "s3cret", "POST", "/api/v1/metrics/batch-upsert", body) {
		t.Fatalf("did not expect signature to verify for another path")
	}
	if VerifySignature(headers, "s3cret", "POST", "/api/v1/sources/batch-upsert", []byte("{}")) {
		t.Fatalf("did not expect signature to verify for another body")
	}
}

func TestSignRequiresKeyAndSecret(t *testing.T) {
	t.Parallel()

	if _, err := Sign("", "secret", "POST", "/p", nil); err == nil {
		t.Fatalf("expected error without key id")
	}
	if _, err := Sign("key", " ", "POST", "/p", nil); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestTimestampInSkew(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	globaltime.SetMockTime(now)
	defer globaltime.ResetTime()

	recent := now.Add(-2 * time.Minute).Unix()
	if !TimestampInSkew(itoa(recent), 300) {
		t.Fatalf("expected recent timestamp to pass")
	}

	stale := now.Add(-10 * time.Minute).Unix()
	if TimestampInSkew(itoa(stale), 300) {
		t.Fatalf("expected stale timestamp to fail")
	}

	future := now.Add(10 * time.Minute).Unix()
	if TimestampInSkew(itoa(future), 300) {
		t.Fatalf("expected future timestamp to fail")
	}

	if TimestampInSkew("not-a-number", 300) {
		t.Fatalf("expected malformed timestamp to fail")
	}
}

func TestHashAndVerifyToken(t *testing.T) {
	t.Parallel()

	hash, err := HashToken("op-token-1")
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	if !VerifyToken("op-token-1", hash) {
		t.Fatalf("expected token verification to succeed")
	}
	if VerifyToken("other", hash) {
		t.Fatalf("did not expect wrong token to verify")
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
