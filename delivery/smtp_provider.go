package delivery

import (
	"context"
	"fmt"
	"net"
	"net/smtp"

	"github.com/jhillyerd/enmime"
)

// SMTPProvider builds MIME messages with enmime and hands them to an
// enmime.Sender, normally an SMTP relay.
type SMTPProvider struct {
	sender   enmime.Sender
	fromName string
	fromAddr string
}

// NewSMTPProvider relays through addr ("host:port"). PLAIN auth is used when
// a username is given.
func NewSMTPProvider(addr, username, password, fromAddr, fromName string) *SMTPProvider {
	var auth smtp.Auth
	if username != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		auth = smtp.PlainAuth("", username, password, host)
	}
	return NewSMTPProviderWithSender(enmime.NewSMTP(addr, auth), fromAddr, fromName)
}

func NewSMTPProviderWithSender(sender enmime.Sender, fromAddr, fromName string) *SMTPProvider {
	return &SMTPProvider{sender: sender, fromAddr: fromAddr, fromName: fromName}
}

func (p *SMTPProvider) Type() string { return "smtp" }

func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	builder := enmime.Builder().
		From(p.fromName, p.fromAddr).
		To(msg.ToName, msg.ToEmail).
		Subject(msg.Subject).
		Text([]byte(msg.Text))
	if msg.HTML != "" {
		builder = builder.HTML([]byte(msg.HTML))
	}
	if err := builder.Send(p.sender); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.ToEmail, err)
	}
	return nil
}
