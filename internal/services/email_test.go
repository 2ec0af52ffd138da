package services

import (
	"testing"

	"github.com/portfoliofuturo/portfolio-api/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestEmailService_IsConfigured(t *testing.T) {
	full := config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "user@example.com",
		Password: "password",
		From:     "noreply@example.com",
	}

	testCases := []struct {
		name   string
		mutate func(c *config.SMTPConfig)
		want   bool
	}{
		{"complete", func(c *config.SMTPConfig) {}, true},
		{"missing host", func(c *config.SMTPConfig) { c.Host = "" }, false},
		{"missing username", func(c *config.SMTPConfig) { c.Username = "" }, false},
		{"missing password", func(c *config.SMTPConfig) { c.Password = "" }, false},
		{"missing from", func(c *config.SMTPConfig) { c.From = "" }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := full
			tc.mutate(&cfg)
			assert.Equal(t, tc.want, NewEmailService(cfg).IsConfigured())
		})
	}
}

func TestEmailService_Send_NotConfigured(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{})

	assert.NoError(t, svc.Send("to@example.com", "Subject", "Body"))
}

func TestEmailService_SendConfirmation_NotConfigured(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{})

	err := svc.SendConfirmation("to@example.com", "Ana", "http://localhost:8080/api/v1/auth/confirm?token=abc")

	assert.NoError(t, err)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("from@example.com", "to@example.com", "Hello", "<p>hi</p>"))

	assert.Contains(t, msg, "From: from@example.com\r\n")
	assert.Contains(t, msg, "To: to@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hello\r\n")
	assert.Contains(t, msg, "charset=\"UTF-8\"")
	assert.Contains(t, msg, "\r\n\r\n<p>hi</p>")
}
