package util

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client with a tuned transport. A non-empty userAgent
// is set on every request that does not carry one already.
func NewHTTPClient(timeout time.Duration, userAgent string) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	var rt http.RoundTripper = tr
	if userAgent != "" {
		rt = &uaTransport{next: tr, userAgent: userAgent}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

type uaTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(r)
}
