package db

import (
	"context"
)

// StoredResponse is a previously served ingest response, replayed when the
// same Idempotency-Key comes back.
type StoredResponse struct {
	Route        string
	RequestHash  string
	ResponseCode int
	ResponseBody string
}

// IdempotencyStore caches ingest responses by Idempotency-Key.
type IdempotencyStore struct {
	pool *Pool
}

func NewIdempotencyStore(pool *Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

// Lookup returns the stored response for key, or nil when unseen.
func (s *IdempotencyStore) Lookup(ctx context.Context, key string) (*StoredResponse, error) {
	var stored StoredResponse
	err := s.pool.QueryRow(ctx,
		`SELECT route, request_hash, response_code, response_body FROM api_idempotency WHERE idem_key = $1`,
		key,
	).Scan(&stored.Route, &stored.RequestHash, &stored.ResponseCode, &stored.ResponseBody)
	if IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Save records a served response. A concurrent duplicate insert keeps the
// first writer's row.
func (s *IdempotencyStore) Save(ctx context.Context, key, route, requestHash string, code int, body string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO api_idempotency (idem_key, route, request_hash, response_code, response_body, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (idem_key) DO NOTHING`,
		key, route, requestHash, code, body)
	return err
}
