package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/config"
	"github.com/subscribarr/subscribarr/internal/models"
)

const mimeBoundary = "subscribarr-alt-boundary"

// EmailSender delivers over SMTP. Security mode "ssl" opens an
// implicit-TLS connection, "starttls" upgrades after EHLO, anything
// else stays plaintext.
type EmailSender struct {
	cfg    config.Mail
	logger *logrus.Logger
}

func NewEmailSender(cfg config.Mail, logger *logrus.Logger) *EmailSender {
	return &EmailSender{cfg: cfg, logger: logger}
}

func (s *EmailSender) from() string {
	if s.cfg.From != "" {
		return s.cfg.From
	}
	return "noreply@" + s.cfg.Host
}

func (s *EmailSender) port() int {
	if s.cfg.Port != 0 {
		return s.cfg.Port
	}
	switch s.cfg.Secure {
	case "ssl":
		return 465
	case "starttls":
		return 587
	default:
		return 25
	}
}

// Send delivers the message by email. Email is the last-resort
// channel, so a missing address or relay is terminal failure.
func (s *EmailSender) Send(ctx context.Context, user *models.User, msg Message) bool {
	if user.Email == "" {
		s.logger.WithField("user", user.Name).Warn("User has no email address")
		return false
	}
	if s.cfg.Host == "" {
		s.logger.Warn("No mail relay configured")
		return false
	}

	if err := s.deliver(ctx, user.Email, msg); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user": user.Name,
			"to":   user.Email,
		}).Error("Email delivery failed")
		return false
	}
	s.logger.WithFields(logrus.Fields{
		"user": user.Name,
		"to":   user.Email,
	}).Info("Sent email notification")
	return true
}

func (s *EmailSender) deliver(ctx context.Context, to string, msg Message) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.port())

	dialer := &net.Dialer{Timeout: 10 * time.Second}
	var conn net.Conn
	var err error
	if s.cfg.Secure == "ssl" {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("connecting to mail relay: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if s.cfg.Secure == "starttls" {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("mail relay does not offer STARTTLS")
		}
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.cfg.User != "" {
		auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.from()); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(buildMIME(s.from(), to, msg)); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}
	return client.Quit()
}

// buildMIME renders the message, as multipart/alternative when a rich
// body is present.
func buildMIME(from, to string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")

	body := msg.Body
	if msg.ClickURL != "" {
		body += "\r\n\r\n" + msg.ClickURL
	}

	if msg.HTMLBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(body)
		b.WriteString("\r\n")
		return []byte(b.String())
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mimeBoundary)
	fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(body)
	fmt.Fprintf(&b, "\r\n--%s\r\n", mimeBoundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(msg.HTMLBody)
	fmt.Fprintf(&b, "\r\n--%s--\r\n", mimeBoundary)
	return []byte(b.String())
}
