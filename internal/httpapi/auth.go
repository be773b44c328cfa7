package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"crossview/internal/auth"
)

const (
	HeaderAdminToken     = "X-Admin-Token"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// requireAdmin guards operator endpoints with the bcrypt-hashed admin token.
func (s *Server) requireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.TrimSpace(s.opts.AdminTokenHash) == "" {
				s.logger.Warn().Msg("admin endpoint hit with no admin token configured")
				return fail(c, http.StatusServiceUnavailable, "Admin access is not configured", nil)
			}
			token := c.Request().Header.Get(HeaderAdminToken)
			if !auth.VerifyToken(token, s.opts.AdminTokenHash) {
				return fail(c, http.StatusUnauthorized, "Invalid admin token", nil)
			}
			return next(c)
		}
	}
}

// requireSignature verifies the HMAC headers of collector requests. The body
// is read once here and restored for the handler.
func (s *Server) requireSignature() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			headers := auth.SignedHeaders{
				KeyID:     req.Header.Get(auth.HeaderAPIKey),
				Timestamp: req.Header.Get(auth.HeaderAPITS),
				Nonce:     req.Header.Get(auth.HeaderAPINonce),
				Signature: req.Header.Get(auth.HeaderAPISig),
			}
			if headers.KeyID == "" || headers.Timestamp == "" || headers.Nonce == "" || headers.Signature == "" {
				return fail(c, http.StatusUnauthorized, "Missing signature headers", nil)
			}

			secret, ok := s.opts.IngestKeys[headers.KeyID]
			if !ok {
				return fail(c, http.StatusUnauthorized, "Unknown API key", nil)
			}
			if !auth.TimestampInSkew(headers.Timestamp, int(s.opts.SignatureSkewSecs)) {
				return fail(c, http.StatusUnauthorized, "Signature timestamp out of range", nil)
			}

			body, err := io.ReadAll(req.Body)
			if err != nil {
				return fail(c, http.StatusBadRequest, "Failed to read request body", nil)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			if !auth.VerifySignature(headers, secret, req.Method, req.URL.Path, body) {
				s.logger.Warn().
					Str("key_id", headers.KeyID).
					Str("path", req.URL.Path).
					Msg("rejected request with bad signature")
				return fail(c, http.StatusUnauthorized, "Invalid signature", nil)
			}

			return next(c)
		}
	}
}

// withIdempotency replays a previously served response when the collector
// retries with the same Idempotency-Key, and rejects key reuse across
// different payloads.
func (s *Server) withIdempotency() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get(HeaderIdempotencyKey))
			if key == "" {
				return next(c)
			}

			req := c.Request()
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return fail(c, http.StatusBadRequest, "Failed to read request body", nil)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))

			route := req.Method + " " + req.URL.Path
			requestHash := hashRequest(route, body)

			stored, err := s.idem.Lookup(req.Context(), key)
			if err != nil {
				s.logger.Error().Err(err).Str("idem_key", key).Msg("idempotency lookup failed")
				return internalError(c, "Failed to check idempotency key")
			}
			if stored != nil {
				if stored.RequestHash != requestHash {
					return fail(c, http.StatusConflict, "Idempotency key reused with a different request", nil)
				}
				return c.JSONBlob(stored.ResponseCode, []byte(stored.ResponseBody))
			}

			capture := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = capture

			if err := next(c); err != nil {
				return err
			}

			if err := s.idem.Save(req.Context(), key, route, requestHash, capture.status, capture.buf.String()); err != nil {
				s.logger.Error().Err(err).Str("idem_key", key).Msg("idempotency save failed")
			}
			return nil
		}
	}
}

func hashRequest(route string, body []byte) string {
	sum := sha256.Sum256(append([]byte(route+"\n"), body...))
	return hex.EncodeToString(sum[:])
}

type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}
