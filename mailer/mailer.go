// Package mailer sends operational alert emails over SMTP.
package mailer

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"sedecam/config"

	"github.com/badoux/checkmail"
)

// Sender is the notification contract consumed by the scheduler and the
// failure intake path. Send failures must never abort a record mutation;
// callers log and continue.
type Sender interface {
	Send(to, subject, html string) error
	RenderTemplate(data TemplateData) string
}

// SMTPMailer implements Sender over SMTP with STARTTLS or implicit TLS.
type SMTPMailer struct {
	host       string
	port       int
	username   string
	password   string
	maxRetries int
	retryDelay time.Duration
}

// NewSMTPMailer creates a mailer from configuration.
func NewSMTPMailer(cfg config.Config) (*SMTPMailer, error) {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		return nil, fmt.Errorf("mail configuration is incomplete")
	}
	return &SMTPMailer{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		username:   cfg.SMTPUser,
		password:   cfg.SMTPPass,
		maxRetries: 3,
		retryDelay: 2 * time.Second,
	}, nil
}

// Send delivers an HTML email, retrying with linear backoff.
func (m *SMTPMailer) Send(to, subject, html string) error {
	if err := checkmail.ValidateFormat(to); err != nil {
		return fmt.Errorf("invalid recipient email %s: %v", to, err)
	}
	if subject == "" || html == "" {
		return fmt.Errorf("subject and body are required")
	}

	msg := m.buildMessage(to, subject, html)

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(m.retryDelay * time.Duration(attempt))
			log.Printf("mailer : retrying send to %s (attempt %d)", to, attempt+1)
		}
		if lastErr = m.sendSMTP(to, msg); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to send email after %d attempts: %v", m.maxRetries+1, lastErr)
}

func (m *SMTPMailer) buildMessage(to, subject, body string) string {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.username))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n" + body)
	return msg.String()
}

func (m *SMTPMailer) sendSMTP(to, message string) error {
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	tlsConfig := &tls.Config{
		ServerName: m.host,
		MinVersion: tls.VersionTLS12,
	}

	var client *smtp.Client
	var err error

	if m.port == 465 {
		// Implicit TLS
		conn, dialErr := tls.Dial("tcp", addr, tlsConfig)
		if dialErr != nil {
			return fmt.Errorf("failed to establish TLS connection to %s: %v", addr, dialErr)
		}
		client, err = smtp.NewClient(conn, m.host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("failed to create SMTP client: %v", err)
		}
	} else {
		// STARTTLS (e.g. port 587)
		client, err = smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("failed to dial SMTP server: %v", err)
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			client.Quit()
			return fmt.Errorf("failed to start TLS: %v", err)
		}
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %v", err)
	}
	if err = client.Mail(m.username); err != nil {
		return fmt.Errorf("failed to set sender: %v", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %v", err)
	}
	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %v", err)
	}
	if _, err = writer.Write([]byte(message)); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write message: %v", err)
	}
	if err = writer.Close(); err != nil {
		return fmt.Errorf("failed to finish message: %v", err)
	}

	log.Printf("mailer : email sent to %s via %s", to, addr)
	return nil
}
