package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.emailjs.com/api/v1.0/email/send"

// Client implements notify.Sender using the EmailJS REST API.
type Client struct {
	serviceID  string
	templateID string
	publicKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient constructs a new EmailJS client.
func NewClient(serviceID, templateID, publicKey string) (*Client, error) {
	if strings.TrimSpace(serviceID) == "" {
		return nil, fmt.Errorf("EMAILJS_SERVICE_ID is required")
	}
	if strings.TrimSpace(templateID) == "" {
		return nil, fmt.Errorf("EMAILJS_TEMPLATE_ID is required")
	}
	if strings.TrimSpace(publicKey) == "" {
		return nil, fmt.Errorf("EMAILJS_PUBLIC_KEY is required")
	}
	return &Client{
		serviceID:  serviceID,
		templateID: templateID,
		publicKey:  publicKey,
		apiURL:     defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}, nil
}

// WithAPIURL overrides the endpoint, for tests.
func (c *Client) WithAPIURL(u string) *Client {
	c.apiURL = u
	return c
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send delivers the template with the given variables to the recipient.
// A non-2xx response is surfaced verbatim; there are no retries.
func (c *Client) Send(ctx context.Context, recipientEmail string, vars map[string]string) error {
	if strings.TrimSpace(recipientEmail) == "" {
		return fmt.Errorf("recipient email is required")
	}

	params := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		params[k] = v
	}
	params["to_email"] = recipientEmail

	payload, err := json.Marshal(sendRequest{
		ServiceID:      c.serviceID,
		TemplateID:     c.templateID,
		UserID:         c.publicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("marshal send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("emailjs send status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
