package bot

import "github.com/go-telegram/bot/models"

// keyboardBuilder собирает inline-клавиатуру по рядам.
type keyboardBuilder struct {
	rows [][]models.InlineKeyboardButton
}

func newKeyboard() *keyboardBuilder {
	return &keyboardBuilder{rows: make([][]models.InlineKeyboardButton, 0)}
}

// Row добавляет ряд; пустые ряды пропускаются.
func (b *keyboardBuilder) Row(buttons ...models.InlineKeyboardButton) *keyboardBuilder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Build возвращает nil, если рядов нет: Telegram не получит разметку.
func (b *keyboardBuilder) Build() *models.InlineKeyboardMarkup {
	if len(b.rows) == 0 {
		return nil
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: b.rows}
}

func button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData}
}
