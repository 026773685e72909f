package send

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/afrpush/afrpush/internal/model"
)

// TelegramSender delivers messages through the Telegram bot API.
type TelegramSender struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender creates a Telegram sender for the configured chat.
func NewTelegramSender(botToken string, chatID int64, apiEndpoint string) (*TelegramSender, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}

	endpoint := tgbotapi.APIEndpoint
	if apiEndpoint != "" {
		endpoint = apiEndpoint + "/bot%s/%s"
	}

	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(botToken, endpoint)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot API: %w", err)
	}
	return &TelegramSender{api: api, chatID: chatID}, nil
}

// Name identifies the channel in delivery records.
func (s *TelegramSender) Name() string { return "telegram-bot" }

// Send posts a text message to the configured chat. The target parameter is
// informational only; Telegram addressing comes from the chat id.
func (s *TelegramSender) Send(_ string, message string) model.DeliveryResult {
	msg := tgbotapi.NewMessage(s.chatID, message)
	resp, err := s.api.Send(msg)
	if err != nil {
		return model.DeliveryResult{
			Channel:      s.Name(),
			Success:      false,
			ErrorMessage: fmt.Sprintf("telegram sendMessage failed: %v", err),
		}
	}
	return model.DeliveryResult{
		Channel:         s.Name(),
		Success:         true,
		ResponseExcerpt: excerpt(fmt.Sprintf("message_id=%d", resp.MessageID)),
	}
}

// SendImage posts a photo to the configured chat.
func (s *TelegramSender) SendImage(_ string, imagePath string) model.DeliveryResult {
	photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FilePath(imagePath))
	resp, err := s.api.Send(photo)
	if err != nil {
		return model.DeliveryResult{
			Channel:      s.Name(),
			Success:      false,
			ErrorMessage: fmt.Sprintf("telegram sendPhoto failed: %v", err),
		}
	}
	return model.DeliveryResult{
		Channel:         s.Name(),
		Success:         true,
		ResponseExcerpt: excerpt(fmt.Sprintf("message_id=%d", resp.MessageID)),
	}
}
