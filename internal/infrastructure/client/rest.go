// Package client implements the typed HTTP clients the services use to call
// each other. Every client decodes the shared {status, message} error
// envelope: structured 4xx bodies become the matching domain error kind and
// anything else (transport failure, timeout, 5xx, garbage body) becomes
// ServiceUnavailable for the resilience wrapper to handle.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/madeeasy/coursehub/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// errorEnvelope is the wire shape every service renders errors in.
type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// REST is a thin JSON client bound to one peer service's base URL. The
// caller's bearer token, when present in the context, is forwarded on every
// request so downstream authorization sees the original principal.
type REST struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

func NewREST(baseURL string, timeout time.Duration, log zerolog.Logger) *REST {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *REST) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer := domain.BearerFromContext(ctx); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Wrap(domain.KindServiceUnavailable, err, "remote service unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return domain.Wrap(domain.KindServiceUnavailable, err, "remote service returned an unreadable response")
		}
		return nil
	}

	return c.translate(resp)
}

// translate converts a non-2xx response into a domain error. 5xx and
// unparseable bodies are remote-unavailable; a structured 4xx keeps the
// upstream message so the end client sees the real cause.
func (c *REST) translate(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 500 {
		c.log.Warn().Int("status", resp.StatusCode).Str("url", resp.Request.URL.Path).Msg("remote service error")
		return domain.E(domain.KindServiceUnavailable, "remote service unavailable")
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Message == "" {
		return domain.E(domain.KindServiceUnavailable, "remote service returned an unreadable error")
	}

	return domain.E(kindForStatus(resp.StatusCode), "%s", envelope.Message)
}

func kindForStatus(code int) domain.Kind {
	switch code {
	case http.StatusBadRequest:
		return domain.KindValidation
	case http.StatusUnauthorized:
		return domain.KindBadCredentials
	case http.StatusForbidden:
		return domain.KindTokenUnusable
	case http.StatusNotFound:
		return domain.KindNotFound
	case http.StatusConflict:
		return domain.KindConflict
	default:
		return domain.KindValidation
	}
}
