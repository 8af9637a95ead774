package newsletter

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"/eventos", true},
		{"https://pepedome.com/tickets", true},
		{"http://insecure.example", false},
		{"javascript:alert(1)", false},
		{"ftp://x", false},
	}
	for _, tt := range tests {
		if got := ValidURL(tt.url); got != tt.want {
			t.Errorf("ValidURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestValidateInput(t *testing.T) {
	longSubject := strings.Repeat("x", 201)
	badURL := "http://nope"

	tests := []struct {
		name    string
		in      NewsletterInput
		wantErr bool
	}{
		{"valid", NewsletterInput{Subject: "March news"}, false},
		{"empty subject", NewsletterInput{Subject: ""}, true},
		{"whitespace subject", NewsletterInput{Subject: "   "}, true},
		{"subject too long", NewsletterInput{Subject: longSubject}, true},
		{"symbol-only subject", NewsletterInput{Subject: "!!!"}, true},
		{"bad hero url", NewsletterInput{Subject: "ok", HeroCTAURL: &badURL}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInput(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ve *ErrValidation
				if !errors.As(err, &ve) {
					t.Errorf("error is %T, want *ErrValidation", err)
				}
			}
		})
	}
}

func TestValidateBlock(t *testing.T) {
	eventID := uuid.New()

	tests := []struct {
		name    string
		in      BlockInput
		wantErr bool
	}{
		{"event block", EventBlock(eventID, 0), false},
		{"article block", ArticleBlock(eventID, 3), false},
		{"show block", ShowBlock(eventID, 1), false},
		{"custom section", CustomSection("Heading", "text", 2), false},
		{"custom section without text", CustomSection("", "", 0), false},
		{"unknown type", BlockInput{ContentType: "video", Position: 0}, true},
		{"negative position", BlockInput{ContentType: BlockEvent, ContentID: &eventID, Position: -1}, true},
		{"event without content id", BlockInput{ContentType: BlockEvent, Position: 0}, true},
		{"custom section with content id", BlockInput{ContentType: BlockCustomSection, ContentID: &eventID, Position: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBlock() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
