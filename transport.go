package promptpoll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

const (
	DefaultEndpoint = "http://localhost:1234/v1/chat/completions"

	statusSnippetLen = 200
)

// Transport: Sends one encoded request and returns the raw status and body. A non-nil error means no response was received.
type Transport interface {
	Send(ctx context.Context, body []byte) (status int, respBody []byte, err error)
}

// StatusError: A response other than 200 OK.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("received status %d", e.Code)
	}
	return fmt.Sprintf("received status %d: %s", e.Code, e.Body)
}

func newStatusError(code int, body []byte) *StatusError {
	if len(body) > statusSnippetLen {
		body = body[:statusSnippetLen]
	}
	return &StatusError{Code: code, Body: string(bytes.TrimSpace(body))}
}

// HTTPTransport: POSTs JSON to a chat-completions endpoint.
type HTTPTransport struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPTransport: A transport for endpoint whose client gives up after timeout.
func NewHTTPTransport(endpoint, apiKey string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Send(ctx context.Context, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// RetryingTransport: Wraps another Transport with exponential backoff.
// Transport errors, 429 and 5xx are retried up to MaxRetries times; other statuses are returned as-is.
type RetryingTransport struct {
	Next       Transport
	MaxRetries uint64
	// NewBackOff builds the policy for one Send. ExponentialBackOff is stateful, so it is never shared between calls.
	NewBackOff func() backoff.BackOff
	Logger     Logger
}

// NewRetryingTransport: Retries next with backoff.NewExponentialBackOff.
func NewRetryingTransport(next Transport, maxRetries uint64, optLogger Logger) *RetryingTransport {
	var logger Logger
	if optLogger != nil {
		logger = optLogger
	} else {
		logger = &noOpLogger{}
	}
	return &RetryingTransport{
		Next:       next,
		MaxRetries: maxRetries,
		NewBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		Logger:     logger,
	}
}

func (t *RetryingTransport) Send(ctx context.Context, body []byte) (int, []byte, error) {
	var status int
	var respBody []byte

	//backoff.Retry contract only permits returning an error.
	operation := func() error {
		var err error
		status, respBody, err = t.Next.Send(ctx, body)
		if err != nil {
			return err
		}
		if retryableStatus(status) {
			return newStatusError(status, respBody)
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		t.Logger.Warnf("Retrying in %s after: %v", wait, err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(t.NewBackOff(), t.MaxRetries), ctx)
	err := backoff.RetryNotify(operation, policy, notify)

	var statusErr *StatusError
	if err != nil && errors.As(err, &statusErr) {
		// Retries exhausted on a status: hand the last response back for the caller to classify.
		return status, respBody, nil
	}
	return status, respBody, err
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
