// Package services holds outbound integrations. The mailer delivers
// password-reset OTPs over SMTP and degrades to a logged no-op when no
// SMTP server is configured, so local setups work without one.
package services

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
)

type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewMailerFromEnv() *Mailer {
	return &Mailer{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     os.Getenv("SMTP_PORT"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

var defaultMailer *Mailer

func DefaultMailer() *Mailer {
	if defaultMailer == nil {
		defaultMailer = NewMailerFromEnv()
	}
	return defaultMailer
}

func (m *Mailer) IsConfigured() bool {
	return m.Host != "" && m.Port != "" && m.From != ""
}

func (m *Mailer) SendPasswordResetOTP(to, otp string) error {
	if !m.IsConfigured() {
		log.Printf("Mailer not configured, skipping password reset email to %s", to)
		return nil
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: TaskFlow <%s>\r\n"+
			"Subject: Your Password Reset OTP\r\n"+
			"\r\n"+
			"Your OTP is: %s\r\n"+
			"This OTP expires in 10 minutes.\r\n",
		to, m.From, otp))

	auth := smtp.PlainAuth("", m.Username, m.Password, m.Host)

	return smtp.SendMail(m.Host+":"+m.Port, auth, m.From, []string{to}, msg)
}
