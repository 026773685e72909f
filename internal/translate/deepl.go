package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultDeepLEndpoint = "https://api-free.deepl.com/v2/translate"

// DeepL translates text via the DeepL HTTP API.
type DeepL struct {
	apiKey     string
	endpoint   string
	glossaryID string
	formality  string
	client     *http.Client
}

// NewDeepL creates a DeepL translator. The API key is required.
func NewDeepL(apiKey, endpoint, glossaryID, formality string, timeout time.Duration) (*DeepL, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("DeepL API key is required")
	}
	if endpoint == "" {
		endpoint = defaultDeepLEndpoint
	}
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	return &DeepL{
		apiKey:     apiKey,
		endpoint:   endpoint,
		glossaryID: glossaryID,
		formality:  formality,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Translate sends text to DeepL and returns the translation. Blank input
// is returned unchanged without an API call.
func (d *DeepL) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", targetLang)
	if sourceLang != "" {
		form.Set("source_lang", sourceLang)
	}
	if d.glossaryID != "" {
		form.Set("glossary_id", d.glossaryID)
	}
	if d.formality != "" {
		form.Set("formality", d.formality)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepl API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("deepl API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(result.Translations) == 0 || result.Translations[0].Text == "" {
		return "", fmt.Errorf("deepl response missing translations")
	}
	return result.Translations[0].Text, nil
}
