package app

import (
	"net"
	"net/http"
	"time"
)

// newHTTPClient returns the client shared by the model providers and the
// article fetcher. Per-call deadlines come from contexts; timeout is only a
// backstop against hung connections.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   64,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &http.Client{
		Transport: transport,
		// Uploads and image generation can outlast a single LLM timeout.
		Timeout: timeout + 30*time.Second,
	}
}
