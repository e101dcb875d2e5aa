package client

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ProxyHTTPClient returns an HTTP client that sends every request through
// the given proxy.
func ProxyHTTPClient(httpProxy string) (*http.Client, error) {
	proxyURL, err := url.Parse(httpProxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	if proxyURL.Scheme == "" || proxyURL.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q", httpProxy)
	}
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("default transport is not *http.Transport")
	}
	tr := base.Clone()
	tr.Proxy = http.ProxyURL(proxyURL)
	// Upstream SDKs don't always set transport timeouts.
	tr.DialContext = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ResponseHeaderTimeout = 30 * time.Second
	tr.IdleConnTimeout = 90 * time.Second
	tr.ExpectContinueTimeout = 1 * time.Second
	return &http.Client{Transport: tr}, nil
}
