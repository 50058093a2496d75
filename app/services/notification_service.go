package services

import (
	"fmt"
	"log"
	"strings"
	"sync"
)

// NotificationService handles sending notifications to placement office staff
type NotificationService interface {
	SendEmail(email, subject, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider EmailProvider
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(email, subject, message string) error
}

// NewNotificationService creates a new notification service
func NewNotificationService(emailProvider EmailProvider) NotificationService {
	return &NotificationServiceImpl{
		emailProvider: emailProvider,
	}
}

// SendEmail sends an email to the specified address
func (s *NotificationServiceImpl) SendEmail(email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	// Basic email validation
	if len(email) == 0 || !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address: %s", email)
	}

	return s.emailProvider.SendEmail(email, subject, message)
}

// SentEmail records one email delivered through the mock provider
type SentEmail struct {
	Recipient string
	Subject   string
	Message   string
}

// MockEmailProvider records emails instead of sending them; used in tests and
// local development
type MockEmailProvider struct {
	mu      sync.Mutex
	sent    []SentEmail
	fail    bool
	failErr error
}

func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(email, subject, message string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return p.failErr
	}
	p.sent = append(p.sent, SentEmail{Recipient: email, Subject: subject, Message: message})
	log.Printf("Email sent to %s [%s]", email, subject)
	return nil
}

// GetSentEmails returns a copy of every recorded email
func (p *MockEmailProvider) GetSentEmails() []SentEmail {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SentEmail, len(p.sent))
	copy(out, p.sent)
	return out
}

// ClearSentEmails drops recorded emails
func (p *MockEmailProvider) ClearSentEmails() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}

// FailWith makes every subsequent send return err
func (p *MockEmailProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = err != nil
	p.failErr = err
}

// SMTPEmailProvider sends mail through a configured SMTP relay
type SMTPEmailProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

func NewSMTPEmailProvider(host string, port int, username, password, fromEmail string) EmailProvider {
	return &SMTPEmailProvider{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
	}
}

func (p *SMTPEmailProvider) SendEmail(email, subject, message string) error {
	// Implementation would use net/smtp package or a library like gomail

	log.Printf("Sending email via SMTP to %s [%s]", email, subject)

	// Placeholder implementation
	// In real implementation, configure SMTP and send email

	return nil
}
