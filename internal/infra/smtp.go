package infra

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"

	"consigna/internal/config"

	"github.com/jordan-wright/email"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrSMTPNoConfigurado is returned when SMTP_HOST is empty.
var ErrSMTPNoConfigurado = errors.New("mailer: SMTP no configurado")

// Mailer wraps SMTP configuration for sending remito spreadsheets.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	from     string
	addr     string
	breaker  *Breaker
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		breaker:  NewBreaker(DefaultBreakerConfig("smtp")),
	}
}

// EstadoRelay reports the breaker state guarding the SMTP relay.
func (m *Mailer) EstadoRelay() BreakerEstado { return m.breaker.Estado() }

// SendRemito mails an xlsx attachment held in memory.
func (m *Mailer) SendRemito(to, subject, body, fileName string, xlsx []byte) error {
	if m.host == "" {
		return ErrSMTPNoConfigurado
	}
	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if len(xlsx) > 0 {
		if _, err := e.Attach(bytes.NewReader(xlsx), fileName, mimeXLSX); err != nil {
			return fmt.Errorf("mailer: adjuntar %s: %w", fileName, err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.breaker.Ejecutar(func() error {
		return e.Send(m.addr, auth)
	})
}
