package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendVerificationCode(toEmail, toName, code string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Email Verification Code"
	html := fmt.Sprintf(`
		<h2>Welcome!</h2>
		<p>Hi %s,</p>
		<p>Your email verification code is:</p>
		<p><strong style="font-size: 24px; letter-spacing: 4px;">%s</strong></p>
		<p>The code expires in 1 hour.</p>
		<p>If you didn't create an account with us, please ignore this email.</p>
	`, toName, code)
	text := fmt.Sprintf("Hi %s,\n\nYour email verification code is: %s\n\nThe code expires in 1 hour.", toName, code)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) SendPasswordResetCode(toEmail, toName, code string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	subject := "Password Reset Code"
	html := fmt.Sprintf(`
		<h2>Password Reset</h2>
		<p>Hi %s,</p>
		<p>Your password reset code is:</p>
		<p><strong style="font-size: 24px; letter-spacing: 4px;">%s</strong></p>
		<p>The code expires in 1 hour. If you didn't request a reset, ignore this email.</p>
	`, toName, code)
	text := fmt.Sprintf("Hi %s,\n\nYour password reset code is: %s\n\nThe code expires in 1 hour.", toName, code)

	return m.sendEmail(toEmail, toName, subject, text, html)
}

func (m *MailerSendClient) sendEmail(toEmail, toName, subject, text, html string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
