package mailer

import (
	"github.com/tripline/rideshare-api/pkg/logger"
)

// DevMailer prints codes to the log instead of sending anything.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendVerificationCode(toEmail, toName, code string) error {
	logger.Info("[DEV MAIL] Email verification code",
		"to", toEmail,
		"name", toName,
		"code", code,
	)
	return nil
}

func (d *DevMailer) SendPasswordResetCode(toEmail, toName, code string) error {
	logger.Info("[DEV MAIL] Password reset code",
		"to", toEmail,
		"name", toName,
		"code", code,
	)
	return nil
}
