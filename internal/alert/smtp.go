package alert

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/rotisserie/eris"
)

// SMTPConfig describes the mail relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender mails alerts through a relay.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

// NewSMTPSender validates cfg and builds a sender.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil, eris.New("smtp: host, from and at least one recipient are required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}, nil
}

// Name implements Sender.
func (s *SMTPSender) Name() string {
	return "smtp"
}

// Send implements Sender. net/smtp has no context support, so ctx is only
// checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	if err := s.sendMail(addr, auth, s.cfg.From, s.cfg.To, s.compose(msg)); err != nil {
		return eris.Wrap(err, "smtp: send mail")
	}
	return nil
}

func (s *SMTPSender) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(s.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", encodeSubject(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.HTML, "\n", "<br>\r\n"))
	return []byte(b.String())
}

var headerBreaks = strings.NewReplacer("\r", " ", "\n", " ")

func encodeSubject(subject string) string {
	return mime.QEncoding.Encode("utf-8", headerBreaks.Replace(subject))
}
