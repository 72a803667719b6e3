package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dws-org/dws-frontend/internal/identity"
	"github.com/dws-org/dws-frontend/pkg/logger"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single upstream request when no timeout is
// configured.
const DefaultTimeout = 15 * time.Second

// httpDoer lets tests substitute the transport.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// base carries the pieces shared by the event and ticket clients.
type base struct {
	baseURL string
	http    httpDoer
	log     *logger.Logger
}

func newBase(baseURL string, timeout time.Duration, log *logger.Logger) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Get()
	}
	return base{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// doJSON performs one request and decodes the 2xx response body into out.
// Non-2xx responses and transport errors come back as *APIError; a
// cancelled context comes back as the context error so callers can filter
// aborts before error handling.
func (b *base) doJSON(ctx context.Context, method, path string, sess *identity.Session, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &APIError{Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    readErrorMessage(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to decode response: %v", err),
		}
	}
	return nil
}

// readErrorMessage extracts a server-supplied message from an error body.
// The backends are not consistent about the key they use.
func readErrorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return "upstream error"
}

func transportMessage(err error) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "upstream request timed out"
	}
	return err.Error()
}

// dropInvalid quarantines records without an id rather than letting
// unchecked shapes reach the view model.
func (b *base) warnQuarantined(kind, detail string) {
	b.log.Warn("quarantined malformed upstream record",
		zap.String("kind", kind),
		zap.String("detail", detail),
	)
}
