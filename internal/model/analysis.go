package model

import (
	"strings"
	"time"
)

// Platform is the social network a submitted video URL belongs to.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformInstagram, PlatformFacebook, PlatformYouTube, PlatformTikTok:
		return true
	}
	return false
}

// Category is the kind of guide requested for a video.
type Category string

const (
	CategoryCooking   Category = "cooking"
	CategoryFaceMasks Category = "face-masks"
	CategoryDIY       Category = "diy"
)

// ParseCategory normalises a raw category tag to the canonical set.
// Older clients send "mask" for face masks; that alias is accepted here so it
// never reaches the prompt builder's generic fallback. Anything else is
// rejected with ok == false.
func ParseCategory(raw string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cooking":
		return CategoryCooking, true
	case "face-masks", "face-mask", "mask", "masks":
		return CategoryFaceMasks, true
	case "diy":
		return CategoryDIY, true
	}
	return "", false
}

// VideoAnalysis is the persisted result of analysing one social-media video.
//
// SocialMediaURL is the URL exactly as submitted and is the cache key: at most
// one row exists per value (UNIQUE in the schema).
//
// CUSTOM JSON DATA:
// The processor may return structured side data (an ingredient list for
// recipes). It is stored as a JSON string in CustomJSONRaw and exposed to API
// clients decoded, in CustomJSONData. Only the service layer converts between
// the two.
type VideoAnalysis struct {
	ID             string    `json:"id"`
	SocialMediaURL string    `json:"socialMediaUrl"`
	VideoURL       string    `json:"videoUrl,omitempty"`
	Platform       Platform  `json:"platform"`
	Type           Category  `json:"type"`
	Title          string    `json:"title"`
	Output         string    `json:"output"`
	ThumbnailURL   string    `json:"thumbnailUrl,omitempty"`
	HasThumbnail   bool      `json:"hasThumbnail"`
	MimeType       string    `json:"mimeType"`
	CustomJSONRaw  string    `json:"-"`
	CustomJSONData any       `json:"customJsonData,omitempty"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserVideoAnalysis links a user to an analysis they requested. The analysis
// may have been created by someone else and served from cache.
type UserVideoAnalysis struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	VideoAnalysisID string    `json:"videoAnalysisId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Ingredient is one entry of the structured ingredient list the processor
// returns for recipes and face masks.
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}
