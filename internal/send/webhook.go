package send

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/afrpush/afrpush/internal/model"
)

// WebhookSender posts messages to a WeCom-compatible group webhook.
type WebhookSender struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookSender creates a webhook sender.
func NewWebhookSender(webhookURL string, timeout time.Duration) (*WebhookSender, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	if timeout == 0 {
		timeout = 12 * time.Second
	}
	return &WebhookSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

// Name identifies the channel in delivery records.
func (s *WebhookSender) Name() string { return "wecom-webhook" }

// Send posts a text payload to the webhook.
func (s *WebhookSender) Send(_ string, message string) model.DeliveryResult {
	payload := map[string]any{
		"msgtype": "text",
		"text":    map[string]string{"content": message},
	}
	return s.post(payload)
}

// SendImage posts the image as base64 with an md5 checksum, the wire format
// WeCom group robots require.
func (s *WebhookSender) SendImage(_ string, imagePath string) model.DeliveryResult {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return model.DeliveryResult{
			Channel:      s.Name(),
			Success:      false,
			ErrorMessage: fmt.Sprintf("read image failed: %v", err),
		}
	}

	payload := map[string]any{
		"msgtype": "image",
		"image": map[string]string{
			"base64": base64.StdEncoding.EncodeToString(data),
			"md5":    fmt.Sprintf("%x", md5.Sum(data)),
		},
	}
	return s.post(payload)
}

func (s *WebhookSender) post(payload map[string]any) model.DeliveryResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return model.DeliveryResult{
			Channel:      s.Name(),
			Success:      false,
			ErrorMessage: fmt.Sprintf("marshaling payload: %v", err),
		}
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return model.DeliveryResult{
			Channel:      s.Name(),
			Success:      false,
			ErrorMessage: fmt.Sprintf("HTTP request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return model.DeliveryResult{
			Channel:         s.Name(),
			Success:         false,
			ErrorMessage:    fmt.Sprintf("webhook returned %d", resp.StatusCode),
			ResponseExcerpt: excerpt(string(respBody)),
		}
	}

	var parsed struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.Unmarshal(respBody, &parsed); err == nil && parsed.ErrCode != 0 {
		return model.DeliveryResult{
			Channel:         s.Name(),
			Success:         false,
			ErrorMessage:    fmt.Sprintf("webhook error: %s", parsed.ErrMsg),
			ResponseExcerpt: excerpt(string(respBody)),
		}
	}

	return model.DeliveryResult{
		Channel:         s.Name(),
		Success:         true,
		ResponseExcerpt: excerpt(string(respBody)),
	}
}
