package mailer

// Service delivers short-lived verification codes. Implementations are
// interchangeable: MailerSend in production, SMTP for self-hosted
// setups, the dev mailer for local work.
type Service interface {
	SendVerificationCode(toEmail, toName, code string) error
	SendPasswordResetCode(toEmail, toName, code string) error
}
