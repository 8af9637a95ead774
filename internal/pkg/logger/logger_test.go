package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"
)

func TestComponentTagging(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Component("dispatcher").Info("tick", "due", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["component"] != "dispatcher" {
		t.Errorf("component = %v, want dispatcher", entry["component"])
	}
	if entry["due"] != "3" {
		t.Errorf("due = %v, want 3", entry["due"])
	}
}

func TestEmailFieldsRedacted(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	Info("subscribed", "email", "maria.lopez@example.com")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["email"] != "ma***@example.com" {
		t.Errorf("email = %v, want masked", entry["email"])
	}
}

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"maria.lopez@example.com", "ma***@example.com"},
		{"ab@example.com", "***@example.com"},
		{"not-an-email", "***@***"},
		{"@example.com", "***@***"},
		{"maria@", "***@***"},
		{"a@b@example.com", "***@***"},
	}
	for _, tt := range tests {
		if got := RedactEmail(tt.in); got != tt.want {
			t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
