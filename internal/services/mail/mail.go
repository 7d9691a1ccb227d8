package mail

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"go.uber.org/zap"
)

// Message is an outgoing email.
type Message struct {
	To      string `json:"to"`
	From    string `json:"from,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const magicLinkSubject = "Your Crawdale Hotel sign-in link"

var magicLinkTemplate = template.Must(template.New("magic-link").Funcs(sprig.TxtFuncMap()).Parse(
	`Hello {{ .Email | lower }},

Use the link below to sign in to Crawdale Hotel. It expires in {{ .ExpiresIn }} and can be used once.

{{ .Link }}

If you did not request this email you can ignore it.
`))

// MagicLinkMessage renders the sign-in email for a magic link.
func MagicLinkMessage(email, link, expiresIn string) (Message, error) {
	var buf bytes.Buffer
	data := map[string]string{"Email": email, "Link": link, "ExpiresIn": expiresIn}
	if err := magicLinkTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render magic link email: %w", err)
	}
	return Message{To: email, Subject: magicLinkSubject, Text: buf.String()}, nil
}

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a sender for local development.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message body, which includes the sign-in link.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail not delivered (log provider)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text))
	return nil
}

// Outbox keeps sent messages in memory.
type Outbox struct {
	mu       sync.Mutex
	messages []Message
	err      error
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// FailWith makes subsequent sends return err.
func (o *Outbox) FailWith(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

// Send records msg.
func (o *Outbox) Send(_ context.Context, msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.messages...)
}

// Last returns the most recent message.
func (o *Outbox) Last() (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.messages) == 0 {
		return Message{}, false
	}
	return o.messages[len(o.messages)-1], true
}
