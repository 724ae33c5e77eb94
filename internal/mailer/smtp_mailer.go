package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
)

type SMTPMailer struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	UseTLS bool
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:   strings.TrimSpace(host),
		Port:   port,
		From:   strings.TrimSpace(from),
		User:   strings.TrimSpace(user),
		Pass:   strings.TrimSpace(pass),
		UseTLS: useTLS,
	}
}

func (s *SMTPMailer) SendVerificationCode(toEmail, toName, code string) error {
	subject := "Email Verification Code"
	text := fmt.Sprintf("Hi %s,\n\nYour email verification code is: %s\n\nThe code expires in 1 hour.", toName, code)
	html := fmt.Sprintf(`
		<h2>Welcome!</h2>
		<p>Hi %s,</p>
		<p>Your email verification code is:</p>
		<p><strong style="font-size: 24px; letter-spacing: 4px;">%s</strong></p>
		<p>The code expires in 1 hour.</p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, toName, code)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) SendPasswordResetCode(toEmail, toName, code string) error {
	subject := "Password Reset Code"
	text := fmt.Sprintf("Hi %s,\n\nYour password reset code is: %s\n\nThe code expires in 1 hour.", toName, code)
	html := fmt.Sprintf(`
		<h2>Password Reset</h2>
		<p>Hi %s,</p>
		<p>Your password reset code is:</p>
		<p><strong style="font-size: 24px; letter-spacing: 4px;">%s</strong></p>
		<p>The code expires in 1 hour. If you didn't request a reset, ignore this email.</p>
	`, toName, code)

	return s.sendEmail(toEmail, subject, text, html)
}

func (s *SMTPMailer) sendEmail(toEmail, subject, text, html string) error {
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return fmt.Errorf("empty recipient email")
	}

	var buf bytes.Buffer
	boundary := "mixed-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", toEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit or development SMTP (no auth, no TLS)
	if !s.UseTLS && s.User == "" {
		return smtp.SendMail(addr, nil, s.From, []string{toEmail}, buf.Bytes())
	}

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	// Try plain SMTP first (with STARTTLS if supported)
	if err := smtp.SendMail(addr, auth, s.From, []string{toEmail}, buf.Bytes()); err == nil {
		return nil
	}

	// Fallback to implicit TLS (port 465)
	if s.UseTLS {
		tlsCfg := &tls.Config{ServerName: s.Host}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			return err
		}
		defer c.Quit()

		if s.User != "" {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}

		if err := c.Mail(s.From); err != nil {
			return err
		}
		if err := c.Rcpt(toEmail); err != nil {
			return err
		}

		w, err := c.Data()
		if err != nil {
			return err
		}
		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}
		return w.Close()
	}

	return fmt.Errorf("smtp send failed")
}
