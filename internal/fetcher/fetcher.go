package fetcher

import "context"

// ChromeUserAgent is presented on every outbound request. Several of the
// directory endpoints serve degraded or empty payloads to obvious bots.
const ChromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// Fetcher is the HTTP surface shared by the source adapters.
type Fetcher interface {
	// Get fetches the URL and returns the raw response body.
	Get(ctx context.Context, url string) ([]byte, error)

	// GetJSON fetches the URL and decodes the JSON response into out.
	GetJSON(ctx context.Context, url string, out any) error

	// PostJSON sends body as JSON and decodes the JSON response into out.
	PostJSON(ctx context.Context, url string, body any, out any) error
}
