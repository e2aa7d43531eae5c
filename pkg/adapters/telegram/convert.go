// Package telegram connects a Bot to the Telegram Bot API by long polling.
//
// Inbound messages and inline-button presses become domain events keyed by
// chat ID. Render requests become text or photo messages with an inline
// keyboard: internal choices carry their selector as callback data, external
// ones are URL buttons.
package telegram

import (
	"strconv"
	"time"

	"github.com/aretw0/colloquy/pkg/domain"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultRowWidth is the number of buttons per keyboard row.
const DefaultRowWidth = 2

// EventFromUpdate converts an update into an event.
// It reports false for updates the bot does not react to.
func EventFromUpdate(u tgbotapi.Update) (domain.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		return eventFromCallback(u.CallbackQuery)
	case u.Message != nil:
		return eventFromMessage(u.Message)
	default:
		return domain.Event{}, false
	}
}

func eventFromMessage(m *tgbotapi.Message) (domain.Event, bool) {
	if m.Chat == nil {
		return domain.Event{}, false
	}
	ev := domain.Event{
		ConversationID: strconv.FormatInt(m.Chat.ID, 10),
		MessageID:      strconv.Itoa(m.MessageID),
		ChatType:       m.Chat.Type,
		User:           profile(m.From),
		ReceivedAt:     time.Unix(int64(m.Date), 0).UTC(),
	}
	switch {
	case m.Location != nil:
		ev.Kind = domain.KindLocation
		ev.Location = &domain.Location{Latitude: m.Location.Latitude, Longitude: m.Location.Longitude}
	case len(m.Photo) > 0:
		ev.Kind = domain.KindPhoto
		ev.Text = m.Caption
	case m.Contact != nil:
		ev.Kind = domain.KindContact
		ev.Text = m.Contact.PhoneNumber
	case m.Text != "":
		ev.Kind = domain.KindText
		ev.Text = m.Text
	default:
		return domain.Event{}, false
	}
	return ev, true
}

func eventFromCallback(q *tgbotapi.CallbackQuery) (domain.Event, bool) {
	if q.Message == nil || q.Message.Chat == nil {
		return domain.Event{}, false
	}
	idx, err := strconv.Atoi(q.Data)
	if err != nil {
		return domain.Event{}, false
	}
	return domain.Event{
		ConversationID: strconv.FormatInt(q.Message.Chat.ID, 10),
		MessageID:      "cb:" + q.ID,
		ChatType:       q.Message.Chat.Type,
		Kind:           domain.KindText,
		Choice:         &idx,
		User:           profile(q.From),
		ReceivedAt:     time.Now().UTC(),
	}, true
}

func profile(u *tgbotapi.User) *domain.UserProfile {
	if u == nil {
		return nil
	}
	return &domain.UserProfile{
		ID:           strconv.FormatInt(u.ID, 10),
		IsBot:        u.IsBot,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.UserName,
		LanguageCode: u.LanguageCode,
	}
}

// Keyboard builds the inline keyboard for rendered choices, rowWidth buttons per row.
// It returns nil when there is nothing to show.
func Keyboard(choices []domain.Choice, rowWidth int) *tgbotapi.InlineKeyboardMarkup {
	if len(choices) == 0 {
		return nil
	}
	if rowWidth <= 0 {
		rowWidth = DefaultRowWidth
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, c := range choices {
		if c.External {
			row = append(row, tgbotapi.NewInlineKeyboardButtonURL(c.DisplayName, c.Target))
		} else {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(c.DisplayName, c.Target))
		}
		if len(row) == rowWidth {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// Chattable converts a render request into a message for chatID.
// A photo prompt is sent as the photo with the text as caption.
func Chattable(chatID int64, req domain.RenderRequest, rowWidth int) tgbotapi.Chattable {
	keyboard := Keyboard(req.Choices, rowWidth)

	if req.Photo != "" {
		var file tgbotapi.RequestFileData = tgbotapi.FileID(req.Photo)
		if domain.IsExternalLink(req.Photo) {
			file = tgbotapi.FileURL(req.Photo)
		}
		photo := tgbotapi.NewPhoto(chatID, file)
		photo.Caption = req.Text
		if keyboard != nil {
			photo.ReplyMarkup = *keyboard
		}
		return photo
	}

	msg := tgbotapi.NewMessage(chatID, req.Text)
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	return msg
}
