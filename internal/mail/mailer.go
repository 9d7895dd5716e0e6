package mail

import (
	"fmt"
	"net/smtp"

	"github.com/coursecraft/coursecraft-api/internal/log"
)

// Mailer is the narrow contract the auth flows need. Failures during a
// token-issuing flow make the caller roll the token back, so Send must report
// delivery errors instead of swallowing them.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPSender struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewSMTP(host, port, user, password, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, user: user, password: password, from: from}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.user, s.password, s.host)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.from, to, subject, htmlBody,
	))
	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogSender stands in for SMTP in development and tests.
type LogSender struct{}

func (LogSender) Send(to, subject, htmlBody string) error {
	log.Infof("[MAIL] to=%s subj=%q len=%d", to, subject, len(htmlBody))
	return nil
}
