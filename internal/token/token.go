// Package token fetches the bearer token injected into every test's
// request header: a single HTTP POST whose JSON response carries
// access_token.
package token

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/simple0x47/auth0-amqp-api-tester/internal/apperror"

	"github.com/cenkalti/backoff/v4"
)

// Fetcher performs the one-shot token POST, retrying transient network
// failures with jittered exponential backoff. Broker publish/consume calls
// are never retried this way — only this bootstrap-time HTTP call is.
type Fetcher struct {
	client     *http.Client
	maxElapsed time.Duration
}

// NewFetcher builds a Fetcher with a bounded retry budget.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: 10 * time.Second},
		maxElapsed: 30 * time.Second,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// FetchToken POSTs body to uri with content-type application/json and
// returns the access_token field of the JSON response.
func (f *Fetcher) FetchToken(uri, body string) (string, error) {
	var token string

	operation := func() error {
		req, err := http.NewRequest(http.MethodPost, uri, bytes.NewBufferString(body))
		if err != nil {
			return backoff.Permanent(apperror.Wrap(apperror.InternalFailure, err, "failed to build token request"))
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			// network-level failures are transient: retry.
			return apperror.Wrap(apperror.InternalFailure, err, "token request failed")
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(apperror.Wrap(apperror.InternalFailure, err, "failed to read token response"))
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(apperror.Newf(apperror.InternalFailure, "token endpoint returned status %d: %s", resp.StatusCode, respBody))
		}

		var decoded tokenResponse
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return backoff.Permanent(apperror.Wrap(apperror.InternalFailure, err, "failed to decode token response"))
		}

		if decoded.AccessToken == "" {
			return backoff.Permanent(apperror.New(apperror.InternalFailure, "token response did not contain access_token"))
		}

		token = decoded.AccessToken

		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = f.maxElapsed

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}

	return token, nil
}
