package local

import "log"

// SendEmail allows applications to provide their own email sending
// implementation
type SendEmail interface {
	SendConfirmationEmail(to string, confirmationLink string) error
	SendPasswordResetEmail(to string, resetLink string) error
}

// ConsoleEmailSender is a development implementation that logs emails to
// the console
type ConsoleEmailSender struct{}

func (c *ConsoleEmailSender) SendConfirmationEmail(to string, confirmationLink string) error {
	log.Printf("\n=== EMAIL: Confirm your email ===")
	log.Printf("To: %s", to)
	log.Printf("Body: Confirm your address by clicking: %s", confirmationLink)
	log.Printf("=================================\n")
	return nil
}

func (c *ConsoleEmailSender) SendPasswordResetEmail(to string, resetLink string) error {
	log.Printf("\n=== EMAIL: Password reset ===")
	log.Printf("To: %s", to)
	log.Printf("Body: Reset your password by clicking: %s", resetLink)
	log.Printf("=============================\n")
	return nil
}
