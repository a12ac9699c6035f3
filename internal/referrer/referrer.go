package referrer

import (
	"net/url"
	"strings"
)

// Unknown is returned for referrers that match no platform and are not URLs.
const Unknown = "Unknown"

type platform struct {
	label    string
	patterns []string
}

// Checked top to bottom, first match wins. "t.co" is a substring of many
// hosts, so its position relative to later rows changes results.
var platforms = []platform{
	{"Twitter/X", []string{"twitter.com", "t.co", "x.com"}},
	{"LinkedIn", []string{"linkedin.com"}},
	{"Instagram", []string{"instagram.com"}},
	{"Facebook", []string{"facebook.com", "fb.com"}},
	{"Medium", []string{"medium.com"}},
	{"GitHub", []string{"github.com"}},
	{"YouTube", []string{"youtube.com", "youtu.be"}},
	{"TikTok", []string{"tiktok.com"}},
	{"Reddit", []string{"reddit.com"}},
	{"Discord", []string{"discord.com", "discord.gg"}},
	{"Telegram", []string{"telegram.org", "t.me"}},
	{"WhatsApp", []string{"whatsapp.com"}},
	{"Google Search", []string{"google.com"}},
	{"Bing Search", []string{"bing.com"}},
	{"DuckDuckGo", []string{"duckduckgo.com"}},
}

// Platform classifies ref. The bool is false only for an empty referrer.
func Platform(ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	lower := strings.ToLower(ref)
	for _, p := range platforms {
		for _, pat := range p.patterns {
			if strings.Contains(lower, pat) {
				return p.label, true
			}
		}
	}
	return hostname(ref), true
}

func hostname(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil || u.Scheme == "" {
		return Unknown
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Unknown
	}
	return strings.TrimPrefix(host, "www.")
}
