// FILE: internal/pkg/mailer/email_service.go
package mailer

import (
	"fmt"
	"os"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendOTP(toEmail, otp string) error
	SendResetToken(toEmail, token string) error
	SendTicketConfirmation(toEmail, ticketID, issue, sla string) error
	SendLeaveConfirmation(toEmail, requestID, startDate, endDate string, days int) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
	frontendURL string // Added to construct links
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	d := gomail.NewDialer(host, port, username, password)

	// Get Frontend URL from ENV or default to a safe placeholder
	frontendURL := os.Getenv("FRONTEND_URL")

	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		frontendURL: frontendURL,
	}
}

func (s *emailService) send(m *gomail.Message, kind, toEmail string) error {
	if err := s.dialer.DialAndSend(m); err != nil {
		fmt.Printf("[MAILER ERROR] Failed to send %s to %s: %v\n", kind, toEmail, err)
		return err
	}

	fmt.Printf("[MAILER] %s sent to %s\n", kind, toEmail)
	return nil
}

func (s *emailService) SendOTP(toEmail, otp string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Your Verification Code")

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Welcome to ByteMe Assistant!</h2>
			<p>Your verification code is:</p>
			<h1 style="color: #4CAF50; letter-spacing: 5px;">%s</h1>
			<p>This code will expire in 15 minutes.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, otp)

	m.SetBody("text/html", body)
	return s.send(m, "OTP", toEmail)
}

func (s *emailService) SendResetToken(toEmail, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "Reset Your Password")

	// Construct the clickable link pointing to the FRONTEND
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Password Reset Request</h2>
			<p>You requested to reset your password. Click the button below to proceed:</p>
			<a href="%s" style="background-color: #007BFF; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Reset Password</a>
			<p>Or copy this link:</p>
			<p>%s</p>
			<p>This link will expire in 1 hour.</p>
			<p>If you didn't request this, please ignore this email.</p>
		</div>
	`, resetLink, resetLink)

	m.SetBody("text/html", body)
	return s.send(m, "Reset Token", toEmail)
}

// SendTicketConfirmation mails the user after the assistant files an IT
// support ticket on their behalf.
func (s *emailService) SendTicketConfirmation(toEmail, ticketID, issue, sla string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("IT Ticket %s Created", ticketID))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your IT ticket has been created</h2>
			<p>Ticket ID: <strong>%s</strong></p>
			<p>Issue: %s</p>
			<p>Expected resolution time: %s</p>
			<p>You can reply to the assistant at any time to check the status.</p>
		</div>
	`, ticketID, issue, sla)

	m.SetBody("text/html", body)
	return s.send(m, "Ticket Confirmation", toEmail)
}

// SendLeaveConfirmation mails the user after the assistant submits a leave
// request for them.
func (s *emailService) SendLeaveConfirmation(toEmail, requestID, startDate, endDate string, days int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", fmt.Sprintf("Leave Request %s Submitted", requestID))

	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your leave request has been submitted</h2>
			<p>Request ID: <strong>%s</strong></p>
			<p>Period: %s to %s (%d working days)</p>
			<p>Your manager will be notified for approval.</p>
		</div>
	`, requestID, startDate, endDate, days)

	m.SetBody("text/html", body)
	return s.send(m, "Leave Confirmation", toEmail)
}
