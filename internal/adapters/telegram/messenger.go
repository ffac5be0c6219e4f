package telegram

import (
	"context"

	"github.com/example/bpbot/internal/ports/secondary"
)

// Messenger implements secondary.Messenger over the Bot API client. Chat IDs
// are private-chat IDs, which equal the user's identity ID.
type Messenger struct {
	client *Client
}

// NewMessenger creates a messenger.
func NewMessenger(client *Client) *Messenger {
	return &Messenger{client: client}
}

// SendText sends text with an optional keyboard change.
func (m *Messenger) SendText(ctx context.Context, chatID int64, text string, markup *secondary.ReplyMarkup) error {
	return m.client.SendMessage(ctx, chatID, text, toMarkup(markup))
}

// SendPhoto uploads a PNG chart.
func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, image []byte, caption string) error {
	return m.client.SendPhoto(ctx, chatID, image, "chart.png", caption)
}

// SendDocument uploads a file.
func (m *Messenger) SendDocument(ctx context.Context, chatID int64, content []byte, filename, caption string) error {
	return m.client.SendDocument(ctx, chatID, content, filename, caption)
}

// toMarkup returns nil (leave keyboard alone), a remove request, or a keyboard.
func toMarkup(markup *secondary.ReplyMarkup) any {
	if markup == nil {
		return nil
	}
	if markup.Remove {
		return ReplyKeyboardRemove{RemoveKeyboard: true}
	}

	rows := make([][]KeyboardButton, 0, len(markup.Rows))
	for i, labels := range markup.Rows {
		row := make([]KeyboardButton, 0, len(labels))
		for j, label := range labels {
			row = append(row, KeyboardButton{
				Text:           label,
				RequestContact: markup.RequestContact && i == 0 && j == 0,
			})
		}
		rows = append(rows, row)
	}
	return ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}

var _ secondary.Messenger = (*Messenger)(nil)
