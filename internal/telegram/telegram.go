// Package telegram adapts the Telegram Bot API to the small surface the
// bot needs: a stream of inbound messages and a Markdown reply sender.
package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message is one inbound chat message, reduced to the fields the bot
// cares about.
type Message struct {
	ChatID    int64
	MessageID int
	Handle    string
	FirstName string
	LastName  string
	Text      string
}

type Session struct {
	api      *tgbotapi.BotAPI
	messages chan Message
}

func NewSession(token string) (*Session, func(), error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, nil, err
	}

	s := &Session{
		api:      api,
		messages: make(chan Message),
	}
	return s, func() { api.StopReceivingUpdates() }, nil
}

// Name is the bot's own username, used to match /cmd@name commands.
func (s *Session) Name() string {
	return s.api.Self.UserName
}

// Messages starts long polling and streams inbound messages until the
// session is closed.
func (s *Session) Messages() <-chan Message {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := s.api.GetUpdatesChan(u)

	go func() {
		defer close(s.messages)
		for update := range updates {
			m := update.Message
			if m == nil || m.From == nil {
				continue
			}

			s.messages <- Message{
				ChatID:    m.Chat.ID,
				MessageID: m.MessageID,
				Handle:    m.From.UserName,
				FirstName: m.From.FirstName,
				LastName:  m.From.LastName,
				Text:      m.Text,
			}
		}
	}()

	return s.messages
}

// SendMessage replies into a chat with Markdown emphasis enabled, the
// formatting convention all bot responses use.
func (s *Session) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := s.api.Send(msg)
	return err
}
