package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	mail "gopkg.in/mail.v2"
)

// Func adapts a plain function into a verification mailer.
type Func func(ctx context.Context, address, token string) error

// SendVerificationEmail calls the wrapped function.
func (f Func) SendVerificationEmail(ctx context.Context, address, token string) error {
	return f(ctx, address, token)
}

const verificationSubject = "Verify your email address"

var verificationBody = template.Must(template.New("verification").Parse(`<html>
<body>
  <p>Welcome!</p>
  <p>Confirm your email address by opening the link below. The link expires,
  so use it soon.</p>
  <p><a href="{{.Link}}">{{.Link}}</a></p>
  <p>If you did not sign up, ignore this message.</p>
</body>
</html>`))

// SMTPConfig configures the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// VerifyURL is the base address the token is appended to as a ?token=
	// query parameter.
	VerifyURL string
	// DialTimeout caps connection establishment. Zero means 10s.
	DialTimeout time.Duration
}

// SMTP delivers verification emails over SMTP.
type SMTP struct {
	dialer    *mail.Dialer
	from      string
	verifyURL string
}

// NewSMTP builds an SMTP sender from config.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	switch {
	case cfg.Host == "" || cfg.Port == 0:
		return nil, errors.New("mailer: smtp host and port are required")
	case cfg.From == "":
		return nil, errors.New("mailer: from address is required")
	case cfg.VerifyURL == "":
		return nil, errors.New("mailer: verify url is required")
	}

	dialer := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.DialTimeout > 0 {
		dialer.Timeout = cfg.DialTimeout
	} else {
		dialer.Timeout = 10 * time.Second
	}

	return &SMTP{dialer: dialer, from: cfg.From, verifyURL: cfg.VerifyURL}, nil
}

// SendVerificationEmail renders the verification message and sends it. The
// context is checked before dialing; the dial itself is bounded by the
// dialer timeout.
func (s *SMTP) SendVerificationEmail(ctx context.Context, address, token string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mailer: %w", err)
	}

	link := fmt.Sprintf("%s?token=%s", s.verifyURL, token)
	var body bytes.Buffer
	if err := verificationBody.Execute(&body, struct{ Link string }{Link: link}); err != nil {
		return fmt.Errorf("mailer: render body: %w", err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", address)
	m.SetHeader("Subject", verificationSubject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", address, err)
	}
	return nil
}
