package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ivanoskov/gastos_bot/internal/calendar"
	"github.com/ivanoskov/gastos_bot/internal/flow"
)

// replyMarkup выбирает разметку под ответ; nil - без клавиатуры
func replyMarkup(r flow.Reply) interface{} {
	switch {
	case len(r.Inline) > 0:
		return inlineKeyboard(r.Inline)
	case len(r.Keyboard) > 0:
		return textKeyboard(r.Keyboard)
	case r.ForceReply:
		return tgbotapi.ForceReply{ForceReply: true, Selective: true}
	case r.RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return nil
}

func textKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	var buttons [][]tgbotapi.KeyboardButton
	for _, row := range rows {
		var line []tgbotapi.KeyboardButton
		for _, label := range row {
			line = append(line, tgbotapi.NewKeyboardButton(label))
		}
		buttons = append(buttons, tgbotapi.NewKeyboardButtonRow(line...))
	}

	keyboard := tgbotapi.NewReplyKeyboard(buttons...)
	keyboard.OneTimeKeyboard = true
	return keyboard
}

func inlineKeyboard(rows [][]calendar.Button) tgbotapi.InlineKeyboardMarkup {
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var line []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			line = append(line, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Token))
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(line...))
	}

	return tgbotapi.NewInlineKeyboardMarkup(buttons...)
}
