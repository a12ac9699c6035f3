package referrer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatform(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"https://t.co/abc", "Twitter/X"},
		{"https://twitter.com/someone/status/1", "Twitter/X"},
		{"https://x.com/someone", "Twitter/X"},
		{"https://www.linkedin.com/in/x", "LinkedIn"},
		{"https://l.instagram.com/?u=foo", "Instagram"},
		{"https://l.facebook.com/l.php", "Facebook"},
		{"https://medium.com/@me/post", "Medium"},
		{"https://github.com/me", "GitHub"},
		{"https://youtu.be/abc", "YouTube"},
		{"https://www.tiktok.com/@me", "TikTok"},
		{"https://discord.gg/abc", "Discord"},
		{"https://t.me/channel", "Telegram"},
		{"https://web.whatsapp.com/", "WhatsApp"},
		{"https://www.google.com/search?q=me", "Google Search"},
		{"https://www.bing.com/search?q=me", "Bing Search"},
		{"https://duckduckgo.com/?q=me", "DuckDuckGo"},
		{"HTTPS://GITHUB.COM/ME", "GitHub"},
		{"https://news.ycombinator.com/item?id=1", "news.ycombinator.com"},
		{"https://www.example.org/page", "example.org"},
		{"https://WWW.Example.org/page", "example.org"},
		{"https://stackoverflow.com:443/questions", "stackoverflow.com"},
		{"not a url", Unknown},
		{"/relative/path", Unknown},
		{"mailto:someone", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, ok := Platform(tt.ref)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlatformEmpty(t *testing.T) {
	got, ok := Platform("")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestPlatformFirstMatchWins(t *testing.T) {
	// Both patterns present: the Twitter/X row is checked before GitHub.
	got, _ := Platform("https://github.com/?ref=twitter.com")
	assert.Equal(t, "Twitter/X", got)

	// "t.co" is a substring of "microsoft.com".
	got, _ = Platform("https://www.microsoft.com/")
	assert.Equal(t, "Twitter/X", got)

	// "reddit.com" contains "t.co", so the Reddit row never matches.
	got, _ = Platform("https://old.reddit.com/r/golang")
	assert.Equal(t, "Twitter/X", got)

	// Google appears after GitHub in the table.
	got, _ = Platform("https://www.google.com/url?q=https://github.com/x")
	assert.Equal(t, "GitHub", got)
}

func TestPlatformDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		got, _ := Platform("https://news.ycombinator.com/")
		assert.Equal(t, "news.ycombinator.com", got)
	}
}
