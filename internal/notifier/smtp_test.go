package notifier

import (
	"bytes"
	"strings"
	"testing"

	"github.com/amishk599/jobscout/internal/model"
)

func TestNewSMTPSender_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     SMTPConfig
		wantErr bool
	}{
		{"valid", SMTPConfig{Host: "smtp.example.com", From: "jobs@example.com"}, false},
		{"missing host", SMTPConfig{From: "jobs@example.com"}, true},
		{"missing from", SMTPConfig{Host: "smtp.example.com"}, true},
		{"bad tls", SMTPConfig{Host: "smtp.example.com", From: "jobs@example.com", TLS: "sometimes"}, true},
		{"no tls", SMTPConfig{Host: "localhost", From: "jobs@example.com", TLS: "none"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSMTPSender(tt.cfg, discardLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSMTPSender() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewSMTPSender_Defaults(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "jobs@example.com"}, discardLogger())
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	if s.cfg.Port != 587 {
		t.Errorf("Port = %d, want 587", s.cfg.Port)
	}
	if s.cfg.Timeout <= 0 {
		t.Errorf("Timeout = %v, want a default", s.cfg.Timeout)
	}
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "jobs@example.com"}, discardLogger())
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	msg := Compose("alice@example.com", []model.Listing{sampleListing("Backend Engineer", "https://example.com/1")})

	m, err := s.buildMessage(msg)
	if err != nil {
		t.Fatalf("buildMessage: %v", err)
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"alice@example.com", "jobs@example.com", "Backend Engineer", "https://example.com/1"} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestSMTPSender_BuildMessage_InvalidRecipient(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "jobs@example.com"}, discardLogger())
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	if _, err := s.buildMessage(model.Message{Recipient: "not an address"}); err == nil {
		t.Error("expected error for invalid recipient")
	}
}
