// Package command routes inbound slash commands to handlers through an
// explicit name -> handler table resolved once at startup.
package command

import (
	"context"
	"strings"
)

// Request is one inbound command with the identity of its sender.
type Request struct {
	ChatID    int64
	Handle    string
	FirstName string
	LastName  string
	Text      string
}

type Handler func(ctx context.Context, req Request)

type Router struct {
	botName string
	routes  map[string]Handler
	unknown Handler
}

// NewRouter constructs a router for a bot addressed as @botName; in
// group chats commands may arrive as /cmd@botName.
func NewRouter(botName string) *Router {
	return &Router{
		botName: botName,
		routes:  make(map[string]Handler),
	}
}

func (r *Router) Handle(name string, h Handler) {
	r.routes[name] = h
}

// HandleUnknown installs the handler for messages that look like a
// command but match no route.
func (r *Router) HandleUnknown(h Handler) {
	r.unknown = h
}

// Route dispatches req to at most one handler. Plain chatter and
// commands addressed to a different bot are dropped.
func (r *Router) Route(ctx context.Context, req Request) {
	name, ok := r.command(req.Text)
	if !ok {
		return
	}

	h, ok := r.routes[name]
	if !ok {
		h = r.unknown
	}
	if h == nil {
		return
	}
	h(ctx, req)
}

func (r *Router) command(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", false
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		if name[at+1:] != r.botName {
			return "", false
		}
		name = name[:at]
	}
	if name == "" {
		return "", false
	}
	return name, true
}
