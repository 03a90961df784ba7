// Package platform recognises which social network a video URL points at.
//
// Detection is purely syntactic: the hostname of the raw string is matched
// against known domains. No request is made and redirects are never followed,
// so a shortened or disguised link is rejected rather than resolved.
package platform

import (
	"net/url"
	"strings"

	"github.com/sakif/video-guides/internal/model"
)

// User-facing rejection messages, shown inline next to the URL field.
const (
	MsgEmpty       = "Please enter a URL"
	MsgMalformed   = "Please enter a valid URL"
	MsgUnsupported = "Please enter a valid Instagram, Facebook, YouTube, or TikTok URL"
)

// Result is the outcome of Detect. Platform is empty and Error non-empty
// whenever Valid is false.
type Result struct {
	Valid    bool           `json:"valid"`
	Platform model.Platform `json:"platform,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// domains is checked in order; the first substring hit wins.
var domains = []struct {
	needle   string
	platform model.Platform
}{
	{"instagram.com", model.PlatformInstagram},
	{"instagr.am", model.PlatformInstagram},
	{"facebook.com", model.PlatformFacebook},
	{"fb.com", model.PlatformFacebook},
	{"youtube.com", model.PlatformYouTube},
	{"youtu.be", model.PlatformYouTube},
	{"tiktok.com", model.PlatformTikTok},
}

// Detect validates raw and returns the platform it belongs to.
func Detect(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{Error: MsgEmpty}
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Result{Error: MsgMalformed}
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Result{Error: MsgMalformed}
	}

	for _, d := range domains {
		if strings.Contains(host, d.needle) {
			return Result{Valid: true, Platform: d.platform}
		}
	}

	return Result{Error: MsgUnsupported}
}
