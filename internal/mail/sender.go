package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Sender composes and sends the confirmation message over SMTP.  An empty
// host disables real delivery: the message is logged instead, which is the
// development default.
type Sender struct {
	Host    string
	Port    string
	User    string
	Pass    string
	From    string
	BaseURL string // public base URL the confirmation link points at
}

// Send delivers one confirmation mail.  Errors are returned so the queue
// consumer can decide whether to reject the message; direct callers log
// and move on.
func (s *Sender) Send(email, username, token string) error {
	link := strings.TrimSuffix(s.BaseURL, "/") + "/auth/confirmed_email/" + token

	if s.Host == "" {
		log.Printf("mail: delivery disabled, confirmation link for %s: %s", email, link)
		return nil
	}

	body := fmt.Sprintf("Hi %s,\r\n\r\n"+
		"Please confirm your email address by opening the link below:\r\n\r\n"+
		"%s\r\n\r\n"+
		"The link is valid for 7 days. If you did not sign up, ignore this message.\r\n",
		username, link)
	msg := []byte("From: Contacts App <" + s.From + ">\r\n" +
		"To: " + email + "\r\n" +
		"Subject: Confirm your email\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + body)

	addr := s.Host + ":" + s.Port
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	if err := smtp.SendMail(addr, auth, s.From, []string{email}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email, err)
	}
	return nil
}
