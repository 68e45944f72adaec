package mailer

import (
	"fmt"

	"github.com/tilakkndl/Nature-app/pkg/logger"
)

type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendPasswordResetEmail(toEmail, toName, resetURL string) error {
	logger.Info("[DEV MAIL] Password Reset Email",
		"to", toEmail,
		"name", toName,
		"reset_url", resetURL,
	)

	fmt.Printf("\n"+
		"=================================================================\n"+
		"PASSWORD RESET EMAIL (DEV MODE)\n"+
		"=================================================================\n"+
		"To: %s (%s)\n"+
		"Subject: Your password reset token (valid for 10 minutes)\n"+
		"\n"+
		"Reset URL: %s\n"+
		"=================================================================\n\n",
		toEmail, toName, resetURL)

	return nil
}
