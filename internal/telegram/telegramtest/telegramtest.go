// Package telegramtest records bot responses for tests.
package telegramtest

import "github.com/mvpbot/mvpbot/internal/telegram"

type Response struct {
	ChatID int64
	Text   string
}

type ResponseRecorder struct {
	Responses []Response
	messages  []telegram.Message
}

func NewResponseRecorder(messages []telegram.Message) *ResponseRecorder {
	return &ResponseRecorder{messages: messages}
}

func (r *ResponseRecorder) SendMessage(chatID int64, text string) error {
	r.Responses = append(r.Responses, Response{ChatID: chatID, Text: text})
	return nil
}

func (r *ResponseRecorder) Messages() <-chan telegram.Message {
	ch := make(chan telegram.Message, len(r.messages))
	for _, msg := range r.messages {
		ch <- msg
	}
	close(ch)
	return ch
}
