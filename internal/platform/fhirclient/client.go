// Package fhirclient is the HTTP boundary to the upstream FHIR R4 server.
// Every fetch in the service goes through it: it forwards the caller's
// bearer token, decodes bundles, raises a notification for any failure and
// maps upstream 401 responses to a login redirect.
package fhirclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/ehr/chart/internal/platform/auth"
	"github.com/ehr/chart/internal/platform/errfmt"
	"github.com/ehr/chart/internal/platform/notify"
	"github.com/ehr/chart/pkg/fhir"
)

// Config holds the upstream connection settings.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	LoginPath  string
}

// Client wraps a resty client configured for the upstream FHIR server.
type Client struct {
	rc        *resty.Client
	notifier  *notify.Channel
	logger    zerolog.Logger
	loginPath string
}

// New builds a Client. Retries cover transient transport failures only;
// non-2xx responses are not retried.
func New(cfg Config, notifier *notify.Channel, logger zerolog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetHeader("Accept", "application/fhir+json")

	return &Client{
		rc:        rc,
		notifier:  notifier,
		logger:    logger,
		loginPath: cfg.LoginPath,
	}
}

// UnauthorizedError reports an upstream 401; the carrier of the login path
// the browsing context should be sent to.
type UnauthorizedError struct {
	LoginPath string
}

func (e *UnauthorizedError) Error() string {
	return "unauthorized by upstream FHIR server"
}

// UpstreamError is a non-2xx upstream response. It carries the
// OperationOutcome diagnostics when the server provided one.
type UpstreamError struct {
	StatusCode  int
	Diagnostics string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream FHIR server returned HTTP %d: %s", e.StatusCode, e.ErrorMessage())
}

// ErrorTitle implements errfmt.Titled.
func (e *UpstreamError) ErrorTitle() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// ErrorMessage implements errfmt.Titled.
func (e *UpstreamError) ErrorMessage() string {
	if e.Diagnostics != "" {
		return e.Diagnostics
	}
	return http.StatusText(e.StatusCode)
}

// diagnosticsFrom pulls the first issue diagnostic out of an
// OperationOutcome body, if there is one.
func diagnosticsFrom(body []byte) string {
	var oo fhir.OperationOutcome
	if err := json.Unmarshal(body, &oo); err != nil {
		return ""
	}
	if oo.ResourceType != fhir.TypeOperationOutcome {
		return ""
	}
	for _, issue := range oo.Issue {
		if issue.Diagnostics != "" {
			return issue.Diagnostics
		}
	}
	return ""
}

// Get issues one GET against the upstream and decodes the JSON body into
// out (skipped when out is nil). Failures raise an error notification,
// except 401 which is returned silently for the caller to redirect on.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	req := c.rc.R().SetContext(ctx)
	if tok := auth.TokenFromContext(ctx); tok != "" {
		req.SetAuthToken(tok)
	}

	resp, err := req.Get(path)
	if err != nil {
		c.logger.Error().Err(err).Str("path", path).Msg("fhir request failed")
		d := errfmt.Normalize(err)
		c.notifier.ShowError(d.Title, d.Message, 0)
		return fmt.Errorf("fhir get %s: %w", path, err)
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		return &UnauthorizedError{LoginPath: c.loginPath}
	}
	if !resp.IsSuccess() {
		ue := &UpstreamError{
			StatusCode:  resp.StatusCode(),
			Diagnostics: diagnosticsFrom(resp.Body()),
		}
		c.logger.Error().Int("status", ue.StatusCode).Str("path", path).Msg("fhir request rejected")
		d := errfmt.Normalize(ue)
		c.notifier.ShowError(d.Title, d.Message, 0)
		return ue
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		d := errfmt.Normalize(err)
		c.notifier.ShowError(d.Title, d.Message, 0)
		return fmt.Errorf("decode fhir response for %s: %w", path, err)
	}
	return nil
}

// SearchBundle fetches a search URL and decodes the result envelope.
func (c *Client) SearchBundle(ctx context.Context, path string) (*fhir.Bundle, error) {
	var bundle fhir.Bundle
	if err := c.Get(ctx, path, &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}
