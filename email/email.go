package email

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"code-review-market/config"
)

const dialTimeout = 10 * time.Second

// Service sends plain-text notification mail over SMTP.
type Service struct {
	config *config.SMTPConfig
	log    *zap.Logger
}

func NewService(cfg *config.SMTPConfig, log *zap.Logger) *Service {
	return &Service{config: cfg, log: log.Named("email")}
}

// BuildMessage renders the RFC 5322 headers and body for one mail.
func BuildMessage(from, to, subject, body string) []byte {
	headers := []struct{ k, v string }{
		{"From", from},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=UTF-8"},
	}

	var message bytes.Buffer
	for _, h := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", h.k, h.v)
	}
	message.WriteString("\r\n")
	message.WriteString(body)
	return message.Bytes()
}

func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	if !s.config.Enabled {
		s.log.Debug("smtp disabled, dropping mail", zap.String("to", to), zap.String("subject", subject))
		return nil
	}

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	// Local catchers such as Mailpit accept mail without auth.
	if s.config.Username != "" && s.config.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("smtp auth failed: %w", err)
			}
		}
	}

	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(BuildMessage(s.config.From, to, subject, body)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := client.Quit(); err != nil {
		s.log.Debug("smtp quit failed", zap.Error(err))
	}
	s.log.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
