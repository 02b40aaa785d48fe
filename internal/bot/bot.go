// Package bot wires inbound Telegram messages to the MVP service and
// renders its results as chat replies.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"

	"github.com/mvpbot/mvpbot/internal/command"
	"github.com/mvpbot/mvpbot/internal/mvp"
	"github.com/mvpbot/mvpbot/internal/telegram"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{
	"component": "bot",
})

var (
	templateVoted = template.Must(template.New("voted").Parse(
		`*{{ .Voter }}* voted! MVP score *{{ .TargetName }}*: *{{ .Score }}*`))
	templateBoard = template.Must(template.New("board").Parse(
		`{{ range . }}*{{ .Name }}*: *{{ .Score }}*! {{ end }}`))
	templateRegistered = template.Must(template.New("registered").Parse(
		`Thanks! *{{ .DisplayName }}* registered as *{{ .Handle }}*`))
)

const (
	msgMissingTarget  = "You have to include @usertovotefor!"
	msgNoVoterHandle  = "Get a username first, before voting!"
	msgCooldown       = "You already voted recently (24 hours)"
	msgEmptyUsername  = "Username can not be empty!"
	msgNoScores       = "No MVP list recorded for this chat group!"
	msgUnknownCommand = "That ain't no command!"
	msgInternalError  = "Something went wrong, please try again later."

	msgHelp = "/help - Show this text" +
		"\n/score - Display current MVP stats" +
		"\n/vote *@username* - Vote username for MVP" +
		"\n/meme - Generate meme for current MVP" +
		"\n/register - Register to be eligible for MVP status"
)

// noMVP is the caption used when a chat has no scores yet.
const noMVP = "NO ONE"

type Service interface {
	Register(ctx context.Context, chatID int64, handle, displayName string) (mvp.Registration, error)
	Vote(ctx context.Context, chatID int64, voter, text string) (mvp.VoteReceipt, error)
	Leaderboard(ctx context.Context, chatID int64) (mvp.Board, error)
	RealMVP(ctx context.Context, chatID int64) (mvp.BoardEntry, error)
}

type Sender interface {
	SendMessage(chatID int64, text string) error
}

type MemeGenerator interface {
	Caption(ctx context.Context, caption string) (string, error)
}

type Bot struct {
	svc    Service
	sender Sender
	memes  MemeGenerator
	router *command.Router
}

func New(svc Service, sender Sender, memes MemeGenerator, botName string) *Bot {
	b := &Bot{
		svc:    svc,
		sender: sender,
		memes:  memes,
		router: command.NewRouter(botName),
	}

	b.router.Handle("register", b.handleRegister)
	b.router.Handle("vote", b.handleVote)
	b.router.Handle("score", b.handleScore)
	b.router.Handle("meme", b.handleMeme)
	b.router.Handle("help", b.handleHelp)
	b.router.HandleUnknown(b.handleUnknown)

	return b
}

// Listen processes messages until the stream closes or ctx is done.
func (b *Bot) Listen(ctx context.Context, messages <-chan telegram.Message) error {
	log.Info("ready to process messages")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return errors.New("message stream closed")
			}

			b.router.Route(ctx, command.Request{
				ChatID:    msg.ChatID,
				Handle:    msg.Handle,
				FirstName: msg.FirstName,
				LastName:  msg.LastName,
				Text:      msg.Text,
			})
		}
	}
}

func (b *Bot) handleRegister(ctx context.Context, req command.Request) {
	reg, err := b.svc.Register(ctx, req.ChatID, req.Handle, mvp.FullName(req.FirstName, req.LastName))
	switch {
	case errors.Is(err, mvp.ErrInvalidHandle):
		b.reply(req.ChatID, msgEmptyUsername)
	case err != nil:
		log.WithError(err).Error("register failed")
		b.reply(req.ChatID, msgInternalError)
	default:
		b.replyTemplate(req.ChatID, templateRegistered, reg)
	}
}

func (b *Bot) handleVote(ctx context.Context, req command.Request) {
	receipt, err := b.svc.Vote(ctx, req.ChatID, req.Handle, req.Text)

	var ineligible mvp.IneligibleTargetError
	switch {
	case errors.Is(err, mvp.ErrMalformedVote):
		b.reply(req.ChatID, msgMissingTarget)
	case errors.Is(err, mvp.ErrNoVoterIdentity):
		b.reply(req.ChatID, msgNoVoterHandle)
	case errors.As(err, &ineligible):
		b.reply(req.ChatID, fmt.Sprintf("You can not vote for *%s*", ineligible.Target))
	case errors.Is(err, mvp.ErrCooldownActive):
		b.reply(req.ChatID, msgCooldown)
	case err != nil:
		log.WithError(err).Error("vote failed")
		b.reply(req.ChatID, msgInternalError)
	default:
		b.replyTemplate(req.ChatID, templateVoted, receipt)
	}
}

func (b *Bot) handleScore(ctx context.Context, req command.Request) {
	board, err := b.svc.Leaderboard(ctx, req.ChatID)
	switch {
	case errors.Is(err, mvp.ErrNoScores):
		b.reply(req.ChatID, msgNoScores)
	case err != nil:
		log.WithError(err).Error("leaderboard failed")
		b.reply(req.ChatID, msgInternalError)
	default:
		b.replyTemplate(req.ChatID, templateBoard, board)
	}
}

func (b *Bot) handleMeme(ctx context.Context, req command.Request) {
	caption := noMVP
	entry, err := b.svc.RealMVP(ctx, req.ChatID)
	switch {
	case errors.Is(err, mvp.ErrNoScores):
		// keep the sentinel caption
	case err != nil:
		log.WithError(err).Error("real mvp lookup failed")
		b.reply(req.ChatID, msgInternalError)
		return
	default:
		caption = fmt.Sprintf("%s: %d", entry.Name, entry.Score)
	}

	url, err := b.memes.Caption(ctx, caption)
	if err != nil {
		log.WithError(err).Error("meme generation failed")
		b.reply(req.ChatID, msgInternalError)
		return
	}

	b.reply(req.ChatID, "Congratulations! "+url)
}

func (b *Bot) handleHelp(_ context.Context, req command.Request) {
	b.reply(req.ChatID, msgHelp)
}

func (b *Bot) handleUnknown(_ context.Context, req command.Request) {
	b.reply(req.ChatID, msgUnknownCommand)
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.sender.SendMessage(chatID, text); err != nil {
		log.WithError(err).Error("failed to send message")
	}
}

func (b *Bot) replyTemplate(chatID int64, t *template.Template, data any) {
	var r strings.Builder
	if err := t.Execute(&r, data); err != nil {
		log.WithError(err).Error("failed to render reply")
		return
	}
	b.reply(chatID, r.String())
}
