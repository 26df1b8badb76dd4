package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"chatx-backend/pkg/config"
)

// Service proxies summarization and translation requests to the Gemini
// generateContent API. The relay only needs the text back; any upstream
// failure surfaces as an error for the HTTP layer to translate, never a
// crash.
type Service struct {
	cfg    config.GeminiConfig
	client *http.Client
}

// NewService creates a new assist service
func NewService(cfg config.GeminiConfig) *Service {
	return &Service{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse tolerates the candidate content shapes the API has been
// seen returning: a plain string, an object with parts, or an object with
// a bare text field.
type generateResponse struct {
	Candidates []struct {
		Content json.RawMessage `json:"content"`
	} `json:"candidates"`
}

// Summarize returns a summary of the given text
func (s *Service) Summarize(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf("Summarize the following text:\n\n%s", text)
	return s.generate(ctx, prompt, text)
}

// Translate returns the text translated to the target language
func (s *Service) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	prompt := fmt.Sprintf("Translate the following text to %s:\n\n%s", targetLanguage, text)
	if targetLanguage == "hi" {
		prompt += "\n\nPlease provide a concise, natural-sounding translation without explanations or multiple options."
	}
	return s.generate(ctx, prompt, text)
}

// generate calls the generateContent endpoint. When the response parses but
// carries no usable candidate text, the original input is returned
// unchanged rather than failing the request.
func (s *Service) generate(ctx context.Context, prompt, fallback string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		s.cfg.BaseURL, s.cfg.Model, s.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generative api unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generative api returned status %d", resp.StatusCode)
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Candidates) == 0 {
		return fallback, nil
	}

	return extractText(result.Candidates[0].Content, fallback), nil
}

func extractText(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}

	// Plain string candidate
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	// Object candidate: {parts: [{text}]} or {text}
	var obj struct {
		Parts []part `json:"parts"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return fallback
	}

	if len(obj.Parts) > 0 {
		var buf bytes.Buffer
		for _, p := range obj.Parts {
			buf.WriteString(p.Text)
		}
		return buf.String()
	}
	if obj.Text != "" {
		return obj.Text
	}
	return fallback
}
