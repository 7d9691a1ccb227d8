package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPSenderConfig configures delivery through a transactional mail API.
type HTTPSenderConfig struct {
	URL     string
	APIKey  string
	From    string
	Timeout time.Duration
}

// HTTPSender posts messages as JSON to a mail API endpoint.
type HTTPSender struct {
	client *resty.Client
	url    string
	from   string
}

// APIError is the error body returned by the mail API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewHTTPSender builds a resty client with retries on transient failures.
func NewHTTPSender(cfg HTTPSenderConfig) *HTTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}
	client.AddRetryCondition(retryCondition)

	return &HTTPSender{client: client, url: cfg.URL, from: cfg.From}
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == 429
}

// Send posts msg to the configured endpoint.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = s.from
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(msg).
		SetError(&APIError{}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if resp.StatusCode() < 400 {
		return nil
	}
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil && apiErr.Message != "" {
		return fmt.Errorf("send mail: %w", apiErr)
	}
	return fmt.Errorf("send mail: status %d: %s", resp.StatusCode(), resp.String())
}
