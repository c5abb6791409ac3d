// Package providers implements spec.md §4.3's Provider Clients (C3): one
// narrow interface per outbound channel, each returning the shared
// models.ProviderOutcome. Generalized from the teacher's
// pkg/executor.Executor single-method dispatch to a per-provider
// interface, since a provider call is never generic config-in/data-out —
// it has a fixed, typed shape per channel. HTTP plumbing (timeouts,
// JSON body encoding, status-code-driven error classification) follows
// pkg/executor/builtin/http.go.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/smilemakc/outreachctl/internal/application/retry"
	"github.com/smilemakc/outreachctl/pkg/models"
)

// httpCaller is the shared low-level HTTP helper every provider client
// built on a REST backend uses, mirroring pkg/executor/builtin/http.go's
// request/response handling. Transient failures (network errors, 5xx) are
// retried under retry.Default(); rate limits, validation errors, and auth
// failures are returned to the caller on the first attempt since retrying
// them blindly would either make things worse or can never succeed.
type httpCaller struct {
	client  *http.Client
	baseURL string
	token   string
	policy  *retry.Policy
}

func newHTTPCaller(baseURL, token string, timeout time.Duration) *httpCaller {
	return &httpCaller{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		token:   token,
		policy:  retry.Default(),
	}
}

// do issues an HTTP request and classifies the response into a
// ProviderOutcome. body, if non-nil, is marshaled as JSON. The request is
// retried under c.policy as long as each attempt classifies as transient.
func (c *httpCaller) do(ctx context.Context, method, path string, body any) models.ProviderOutcome {
	var payload []byte
	if body != nil {
		p, err := json.Marshal(body)
		if err != nil {
			return models.ProviderOutcome{Success: false, Error: err.Error(), Category: models.CategoryValidation}
		}
		payload = p
	}

	var outcome models.ProviderOutcome
	_ = c.policy.Execute(ctx, func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		outcome = c.send(ctx, method, path, reader)
		if outcome.Category == models.CategoryTransient {
			return errors.New(outcome.Error)
		}
		return nil
	})
	return outcome
}

func (c *httpCaller) send(ctx context.Context, method, path string, reader io.Reader) models.ProviderOutcome {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return models.ProviderOutcome{Success: false, Error: err.Error(), Category: models.CategoryValidation}
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.ProviderOutcome{Success: false, Error: err.Error(), Category: classifyTransportError(ctx, err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.ProviderOutcome{Success: false, Error: err.Error(), Category: models.CategoryTransient, StatusCode: resp.StatusCode}
	}

	var parsed map[string]any
	if len(respBody) > 0 {
		_ = json.Unmarshal(respBody, &parsed)
	}

	return classifyResponse(resp.StatusCode, parsed, respBody)
}

// classifyTransportError maps a network-level failure (as opposed to an
// HTTP status code) onto a category. Every transport failure (a refused or
// reset connection, the client's own timeout, a context deadline or
// cancellation) is transient.
func classifyTransportError(ctx context.Context, err error) models.OutcomeCategory {
	return models.CategoryTransient
}

// classifyResponse maps an HTTP status code onto the shared outcome
// categories described in spec.md §4.3.
func classifyResponse(status int, parsed map[string]any, raw []byte) models.ProviderOutcome {
	if status >= 200 && status < 300 {
		return models.ProviderOutcome{Success: true, Data: parsed, Category: models.CategoryOK, StatusCode: status}
	}

	errMsg := string(raw)
	if msg, ok := parsed["message"].(string); ok && msg != "" {
		errMsg = msg
	} else if msg, ok := parsed["error"].(string); ok && msg != "" {
		errMsg = msg
	}

	var category models.OutcomeCategory
	switch {
	case status == http.StatusTooManyRequests:
		category = models.CategoryRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		category = models.CategoryCredentialsExpired
	case status == http.StatusNotFound:
		category = models.CategoryNotFound
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		category = models.CategoryValidation
	case status >= 500:
		category = models.CategoryTransient
	default:
		category = models.CategoryUnknown
	}

	return models.ProviderOutcome{Success: false, Error: errMsg, Category: category, StatusCode: status}
}

func wrapErr(outcome models.ProviderOutcome, context string) models.ProviderOutcome {
	if outcome.Error != "" {
		outcome.Error = fmt.Sprintf("%s: %s", context, outcome.Error)
	}
	return outcome
}
