package mailer

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pepedome/backend/internal/newsletter"
)

func strptr(s string) *string { return &s }

func testNewsletter() *newsletter.Newsletter {
	return &newsletter.Newsletter{
		ID:        uuid.New(),
		Slug:      "2025-03-marzo-en-el-domo",
		Subject:   "Marzo en el Domo",
		Preheader: strptr("Circo, música y más"),
		Intro:     strptr("Este mes traemos un programa muy especial."),
		HeroTitle: strptr("Marzo en el Domo"),
		HeroCTAURL: strptr("https://pepedome.com/entradas"),
		HeroCTALabel: strptr("Compra tu entrada"),
		Status:    newsletter.StatusDraft,
	}
}

func testSections() []newsletter.Section {
	return []newsletter.Section{
		{
			Heading: "Próximos eventos",
			Items: []newsletter.Item{
				{
					Type:     newsletter.BlockEvent,
					Title:    "Noche de Circo",
					LinkURL:  "https://pepedome.com/eventos/noche-de-circo",
					StartsAt: time.Date(2025, time.March, 21, 20, 30, 0, 0, time.UTC).Format(time.RFC3339),
				},
			},
		},
		{
			Items: []newsletter.Item{
				{Type: newsletter.BlockCustomSection, Description: "Gracias por acompañarnos."},
			},
		},
	}
}

func TestRender(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	html, err := r.Render(RenderInput{
		Newsletter:     testNewsletter(),
		Sections:       testSections(),
		SiteName:       "Pepe Dome",
		SiteURL:        "https://pepedome.com",
		OpenPixelURL:   "https://pepedome.com/track/open/abc/def",
		UnsubscribeURL: "https://pepedome.com/track/unsubscribe/abc/def",
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	for _, want := range []string{
		"Marzo en el Domo",
		"Circo, música y más",
		"Próximos eventos",
		"Noche de Circo",
		"https://pepedome.com/eventos/noche-de-circo",
		"21/03/2025 20:30",
		"Gracias por acompañarnos.",
		"https://pepedome.com/track/open/abc/def",
		"https://pepedome.com/track/unsubscribe/abc/def",
		"Compra tu entrada",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderWrapsLinks(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	html, err := r.Render(RenderInput{
		Newsletter: testNewsletter(),
		Sections:   testSections(),
		SiteName:   "Pepe Dome",
		SiteURL:    "https://pepedome.com",
		WrapLink: func(target string) string {
			return "https://pepedome.com/track/click/WRAPPED"
		},
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(html, "https://pepedome.com/track/click/WRAPPED") {
		t.Error("item link was not wrapped")
	}
	if strings.Contains(html, `href="https://pepedome.com/eventos/noche-de-circo"`) {
		t.Error("original item link leaked past the wrapper")
	}
}

func TestRenderText(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error: %v", err)
	}

	text := r.RenderText(RenderInput{
		Newsletter:     testNewsletter(),
		Sections:       testSections(),
		SiteName:       "Pepe Dome",
		SiteURL:        "https://pepedome.com",
		UnsubscribeURL: "https://pepedome.com/baja",
	})
	for _, want := range []string{
		"Marzo en el Domo",
		"== Próximos eventos ==",
		"* Noche de Circo",
		"Baja: https://pepedome.com/baja",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("text version missing %q", want)
		}
	}
}
