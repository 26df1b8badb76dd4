package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Verdict is the spam classifier's decision
type Verdict string

const (
	// VerdictSpam blocks delivery
	VerdictSpam Verdict = "spam"
	// VerdictHam allows delivery
	VerdictHam Verdict = "ham"
)

// SpamClient calls the external spam classification service. The client
// carries its own timeout so a slow classifier can never stall message
// delivery; callers treat any error as "not spam" and proceed.
type SpamClient struct {
	url    string
	client *http.Client
}

// NewSpamClient creates a spam classifier client. An empty URL disables
// classification entirely.
func NewSpamClient(url string, timeout time.Duration) *SpamClient {
	return &SpamClient{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type spamRequest struct {
	Message string `json:"message"`
}

type spamResponse struct {
	Prediction string `json:"prediction"`
}

// Check classifies a message. Returns VerdictHam when classification is
// disabled.
func (c *SpamClient) Check(ctx context.Context, message string) (Verdict, error) {
	if c.url == "" {
		return VerdictHam, nil
	}

	body, err := json.Marshal(spamRequest{Message: message})
	if err != nil {
		return VerdictHam, fmt.Errorf("failed to encode spam request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return VerdictHam, fmt.Errorf("failed to build spam request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return VerdictHam, fmt.Errorf("spam classifier unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return VerdictHam, fmt.Errorf("spam classifier returned status %d", resp.StatusCode)
	}

	var result spamResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return VerdictHam, fmt.Errorf("failed to decode spam response: %w", err)
	}

	if result.Prediction == "spam" {
		return VerdictSpam, nil
	}
	return VerdictHam, nil
}
