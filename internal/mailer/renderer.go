package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/pepedome/backend/internal/newsletter"
)

// Renderer turns a newsletter plus its resolved sections into email HTML
// and a plain text alternative, using Liquid templates.
type Renderer struct {
	engine *liquid.Engine
	tpl    *liquid.Template
}

// NewRenderer creates a renderer with the built-in newsletter template.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()

	// {{ preheader | default: "" }}
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	// {{ item.starts_at | date: "2 Jan 2006" }} on RFC3339 strings
	engine.RegisterFilter("date", func(value interface{}, layout string) string {
		s := fmt.Sprintf("%v", value)
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return s
		}
		return t.Format(layout)
	})

	// {{ item.description | truncate: 160 }}
	engine.RegisterFilter("truncate", func(s string, length int) string {
		if len(s) <= length {
			return s
		}
		if length <= 3 {
			return s[:length]
		}
		return s[:length-3] + "..."
	})

	// {{ subject | escape }}
	engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})

	tpl, err := engine.ParseString(emailTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse email template: %w", err)
	}
	return &Renderer{engine: engine, tpl: tpl}, nil
}

// RenderInput carries everything the template binds to.
type RenderInput struct {
	Newsletter     *newsletter.Newsletter
	Sections       []newsletter.Section
	SiteName       string
	SiteURL        string
	OpenPixelURL   string
	UnsubscribeURL string
	// WrapLink, when set, rewrites item links through click tracking.
	WrapLink func(target string) string
}

// Render produces the HTML body. Item links go through WrapLink when set.
func (r *Renderer) Render(in RenderInput) (string, error) {
	n := in.Newsletter

	sections := make([]map[string]interface{}, 0, len(in.Sections))
	for _, sec := range in.Sections {
		items := make([]map[string]interface{}, 0, len(sec.Items))
		for _, item := range sec.Items {
			link := item.LinkURL
			if link != "" && in.WrapLink != nil {
				link = in.WrapLink(link)
			}
			items = append(items, map[string]interface{}{
				"type":        item.Type,
				"title":       item.Title,
				"description": item.Description,
				"image_url":   item.ImageURL,
				"link_url":    link,
				"starts_at":   item.StartsAt,
			})
		}
		sections = append(sections, map[string]interface{}{
			"heading":     sec.Heading,
			"description": sec.Description,
			"items":       items,
		})
	}

	bindings := map[string]interface{}{
		"subject":         n.Subject,
		"preheader":       deref(n.Preheader),
		"intro":           deref(n.Intro),
		"hero_image_url":  deref(n.HeroImageURL),
		"hero_title":      deref(n.HeroTitle),
		"hero_subtitle":   deref(n.HeroSubtitle),
		"hero_cta_label":  deref(n.HeroCTALabel),
		"hero_cta_url":    deref(n.HeroCTAURL),
		"sections":        sections,
		"site_name":       in.SiteName,
		"site_url":        in.SiteURL,
		"open_pixel_url":  in.OpenPixelURL,
		"unsubscribe_url": in.UnsubscribeURL,
	}

	out, err := r.tpl.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render newsletter %s: %w", n.Slug, err)
	}
	return out, nil
}

// RenderText produces the plain text alternative.
func (r *Renderer) RenderText(in RenderInput) string {
	n := in.Newsletter
	var b strings.Builder

	b.WriteString(n.Subject + "\n\n")
	if n.Intro != nil && *n.Intro != "" {
		b.WriteString(*n.Intro + "\n\n")
	}
	for _, sec := range in.Sections {
		if sec.Heading != "" {
			b.WriteString("== " + sec.Heading + " ==\n")
		}
		for _, item := range sec.Items {
			if item.Title != "" {
				b.WriteString("* " + item.Title + "\n")
			}
			if item.Description != "" {
				b.WriteString("  " + item.Description + "\n")
			}
			if item.LinkURL != "" {
				b.WriteString("  " + item.LinkURL + "\n")
			}
		}
		b.WriteString("\n")
	}
	b.WriteString("--\n" + in.SiteName + " · " + in.SiteURL + "\n")
	b.WriteString("Baja: " + in.UnsubscribeURL + "\n")
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const emailTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{ subject | escape }}</title>
</head>
<body style="margin:0;padding:0;background:#f4f1ec;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;color:#22211f;">
  <div style="display:none;max-height:0;overflow:hidden;">{{ preheader | escape }}</div>
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:24px 12px;">
      <table role="presentation" width="600" cellpadding="0" cellspacing="0" style="max-width:600px;background:#ffffff;border-radius:12px;overflow:hidden;">
        {% if hero_image_url != "" %}
        <tr><td><img src="{{ hero_image_url }}" width="600" alt="" style="display:block;width:100%;height:auto;"></td></tr>
        {% endif %}
        <tr><td style="padding:32px 32px 8px;">
          <h1 style="margin:0;font-size:26px;">{{ hero_title | default: subject | escape }}</h1>
          {% if hero_subtitle != "" %}<p style="margin:8px 0 0;color:#6b6861;font-size:16px;">{{ hero_subtitle | escape }}</p>{% endif %}
        </td></tr>
        {% if intro != "" %}
        <tr><td style="padding:16px 32px 0;font-size:16px;line-height:1.6;">{{ intro }}</td></tr>
        {% endif %}
        {% if hero_cta_url != "" %}
        <tr><td style="padding:24px 32px 0;">
          <a href="{{ hero_cta_url }}" style="display:inline-block;background:#d45500;color:#ffffff;padding:12px 28px;border-radius:24px;text-decoration:none;font-weight:600;">{{ hero_cta_label | default: "Más información" }}</a>
        </td></tr>
        {% endif %}
        {% for section in sections %}
        <tr><td style="padding:32px 32px 0;">
          {% if section.heading != "" %}
          <h2 style="margin:0 0 4px;font-size:20px;border-bottom:2px solid #d45500;padding-bottom:6px;">{{ section.heading | escape }}</h2>
          {% if section.description != "" %}<p style="margin:8px 0 0;color:#6b6861;">{{ section.description }}</p>{% endif %}
          {% endif %}
          {% for item in section.items %}
          <table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="margin-top:16px;">
            <tr>
              {% if item.image_url != "" %}
              <td width="140" valign="top"><img src="{{ item.image_url }}" width="128" alt="" style="display:block;border-radius:8px;"></td>
              {% endif %}
              <td valign="top">
                {% if item.title != "" %}
                <h3 style="margin:0;font-size:17px;">{% if item.link_url != "" %}<a href="{{ item.link_url }}" style="color:#22211f;text-decoration:none;">{{ item.title | escape }}</a>{% else %}{{ item.title | escape }}{% endif %}</h3>
                {% endif %}
                {% if item.starts_at != "" %}<p style="margin:4px 0 0;color:#d45500;font-size:13px;font-weight:600;">{{ item.starts_at | date: "02/01/2006 15:04" }}</p>{% endif %}
                {% if item.description != "" %}<p style="margin:6px 0 0;font-size:14px;line-height:1.5;color:#44423d;">{{ item.description }}</p>{% endif %}
              </td>
            </tr>
          </table>
          {% endfor %}
        </td></tr>
        {% endfor %}
        <tr><td style="padding:32px;">
          <p style="margin:0;font-size:12px;color:#9b978e;border-top:1px solid #eceae4;padding-top:16px;">
            {{ site_name }} · <a href="{{ site_url }}" style="color:#9b978e;">{{ site_url }}</a><br>
            <a href="{{ unsubscribe_url }}" style="color:#9b978e;">Darse de baja</a>
          </p>
        </td></tr>
      </table>
    </td></tr>
  </table>
  {% if open_pixel_url != "" %}<img src="{{ open_pixel_url }}" width="1" height="1" alt="" style="display:none;width:1px;height:1px">{% endif %}
</body>
</html>`
