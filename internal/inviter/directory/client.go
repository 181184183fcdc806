package directory

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultUserAgent is sent unless the caller overrides Client.UserAgent.
const DefaultUserAgent = "bulkinvite/1"

// Client talks to the remote membership directory. It is safe for concurrent
// use but holds no per-job state; the engine owns the token and the account.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// NewClient returns a client rooted at baseURL, for example
// "https://api.cloudservices.f5.com/v1".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: DefaultUserAgent,
	}
}

// BaseURL assembles "{scheme}://{host}/{version}". An empty scheme means https.
func BaseURL(scheme, host, version string) string {
	if scheme == "" {
		scheme = "https"
	}
	host = strings.TrimSuffix(host, "/")
	version = strings.Trim(version, "/")
	return fmt.Sprintf("%s://%s/%s", scheme, host, version)
}
