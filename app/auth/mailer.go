package auth

import (
	"context"
	"log"
	"net/url"
	"strings"
)

// Message is an outgoing account email.
type Message struct {
	To      string
	Subject string
	Link    string
}

// Mailer delivers account emails.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer writes messages to a logger instead of sending them. It is the
// default for local development.
type LogMailer struct {
	Logger *log.Logger
}

func (l LogMailer) Send(_ context.Context, m Message) error {
	logger := l.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("mail to=%s subject=%q link=%s", m.To, m.Subject, m.Link)
	return nil
}

// actionLink appends the token to the redirect target as a URL fragment.
func actionLink(redirectTo string, kind TokenKind, token string) string {
	frag := url.Values{}
	frag.Set("type", string(kind))
	frag.Set("token", token)
	base := strings.TrimSuffix(redirectTo, "#")
	if base == "" {
		return "#" + frag.Encode()
	}
	return base + "#" + frag.Encode()
}
