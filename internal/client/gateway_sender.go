package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GatewaySender delivers email through an HTTP mail gateway. The gateway's
// raw error text is passed back verbatim so the governor can classify it.
type GatewaySender struct {
	url    string
	client *http.Client
}

func NewGatewaySender(url string) *GatewaySender {
	return &GatewaySender{
		url: url,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type sendResponse struct {
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

func (s *GatewaySender) Send(ctx context.Context, recipient, subject, body string) (bool, string) {
	reqBody, err := json.Marshal(sendRequest{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
	})
	if err != nil {
		return false, err.Error()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(reqBody))
	if err != nil {
		return false, err.Error()
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, err.Error()
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Sprintf("gateway status %d: %s", resp.StatusCode, string(raw))
	}

	var sr sendResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return false, fmt.Sprintf("failed to decode gateway response: %v body=%q", err, string(raw))
	}
	if !sr.Accepted {
		return false, sr.Error
	}
	return true, ""
}
