package platform

import (
	"testing"

	"github.com/sakif/video-guides/internal/model"
)

func TestDetect_SupportedURLs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want model.Platform
	}{
		{"instagram post", "https://www.instagram.com/p/x", model.PlatformInstagram},
		{"instagram short domain", "https://instagr.am/p/abc", model.PlatformInstagram},
		{"facebook short domain", "https://fb.com/v/y", model.PlatformFacebook},
		{"facebook watch", "https://www.facebook.com/watch?v=123", model.PlatformFacebook},
		{"youtube short link", "https://youtu.be/z", model.PlatformYouTube},
		{"youtube shorts", "https://www.youtube.com/shorts/abc", model.PlatformYouTube},
		{"tiktok video", "https://www.tiktok.com/@u/video/1", model.PlatformTikTok},
		{"uppercase host", "HTTPS://WWW.TIKTOK.COM/@u/video/1", model.PlatformTikTok},
		{"surrounding whitespace", "  https://youtu.be/z  ", model.PlatformYouTube},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.raw)
			if !got.Valid {
				t.Fatalf("Detect(%q) invalid: %s", tt.raw, got.Error)
			}
			if got.Platform != tt.want {
				t.Errorf("Detect(%q).Platform = %q, want %q", tt.raw, got.Platform, tt.want)
			}
			if got.Error != "" {
				t.Errorf("Detect(%q).Error = %q, want empty", tt.raw, got.Error)
			}
		})
	}
}

func TestDetect_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantMsg string
	}{
		{"empty", "", MsgEmpty},
		{"whitespace only", "   \t", MsgEmpty},
		{"no scheme", "www.instagram.com/p/x", MsgMalformed},
		{"plain words", "not a url", MsgMalformed},
		{"scheme only", "https://", MsgMalformed},
		{"bad escape", "https://youtu.be/%zz", MsgMalformed},
		{"unsupported domain", "https://vimeo.com/123", MsgUnsupported},
		{"platform only in path", "https://example.com/instagram.com/p/x", MsgUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.raw)
			if got.Valid {
				t.Fatalf("Detect(%q) = valid, want invalid", tt.raw)
			}
			if got.Platform != "" {
				t.Errorf("Detect(%q).Platform = %q, want empty", tt.raw, got.Platform)
			}
			if got.Error != tt.wantMsg {
				t.Errorf("Detect(%q).Error = %q, want %q", tt.raw, got.Error, tt.wantMsg)
			}
		})
	}
}
