package remote

import "time"

// Config holds the connection settings for the remote processor. It is built
// by the composition root and injected; nothing here reads the environment.
type Config struct {
	// Endpoint is the URL every analysis request is POSTed to.
	Endpoint string
	// APIKey is sent in the x-api-key header.
	APIKey string
	// Timeout bounds one whole request, including reading the body.
	Timeout time.Duration
	// MaxBodyBytes caps how much of a response is read.
	MaxBodyBytes int64
}

// DefaultConfig returns the production endpoint with an empty key.
func DefaultConfig() Config {
	return Config{
		Endpoint: "https://processvideo-ttn5cmpe7q-uc.a.run.app",
		// video analysis is slow; the processor downloads the whole clip first
		Timeout:      5 * time.Minute,
		MaxBodyBytes: 8 << 20,
	}
}
