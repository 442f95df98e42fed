package schema

import (
	"net/url"
	"regexp"
	"strings"

	"property_submission/internal/domain"
)

const (
	ContactPhone    = "phone"
	ContactEmail    = "email"
	ContactWhatsApp = "whatsapp"
	ContactViber    = "viber"
	ContactTelegram = "telegram"
	ContactWebsite  = "website"
)

var (
	emailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	phoneCharRe = regexp.MustCompile(`^\+?[0-9\s\-().]+$`)
	tgHandleRe  = regexp.MustCompile(`^@[A-Za-z0-9_]{5,32}$`)
)

// contactValueFormat checks publicContacts[i].value against the format its type implies.
func contactValueFormat(c *domain.Candidate, i int, value string) string {
	if i < 0 || i >= len(c.PublicContacts) {
		return ""
	}
	v := strings.TrimSpace(value)
	switch c.PublicContacts[i].Type {
	case ContactEmail:
		if !emailRe.MatchString(v) {
			return "Enter a valid email address"
		}
	case ContactPhone:
		if n := digits(v); !phoneCharRe.MatchString(v) || n < 10 || n > 15 {
			return "Phone number must contain 10 to 15 digits"
		}
	case ContactWhatsApp, ContactViber:
		if !phoneCharRe.MatchString(v) || digits(v) < 9 {
			return "Number must contain at least 9 digits"
		}
	case ContactTelegram:
		if !tgHandleRe.MatchString(v) && !IsURL(v) {
			return "Enter a Telegram link or @username"
		}
	case ContactWebsite:
		if !IsURL(v) {
			return "Enter a valid link (https://…)"
		}
	}
	return ""
}

func digits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// IsURL reports whether s parses as an absolute http(s) URL with a host.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
