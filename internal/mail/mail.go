package mail

import (
	"fmt"
	"log"
	"net/smtp"
)

// Result reports the outcome of a best-effort delivery. Failures are data,
// not errors: callers log the reason and move on.
type Result struct {
	Sent   bool   `json:"sent"`
	Reason string `json:"reason,omitempty"`
}

type Sender interface {
	Send(to, subject, body string) Result
}

// SMTPSender delivers mail through a plain SMTP relay. An empty address
// disables delivery entirely, which is the default in development.
type SMTPSender struct {
	addr string
	from string
	log  *log.Logger
}

func NewSMTPSender(logger *log.Logger, addr, from string) *SMTPSender {
	return &SMTPSender{
		addr: addr,
		from: from,
		log:  logger,
	}
}

func (s *SMTPSender) Send(to, subject, body string) Result {
	if s.addr == "" {
		return Result{Sent: false, Reason: "smtp not configured"}
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", s.from, to, subject, body)
	if err := smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg)); err != nil {
		s.log.Printf("smtp send to %s: %v", to, err)
		return Result{Sent: false, Reason: err.Error()}
	}

	return Result{Sent: true}
}
