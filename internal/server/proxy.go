package server

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// upstreamProxy forwards /api/* unchanged to the upstream API so that
// relative export links resolve against the dashboard origin. It is mounted
// beside the gin engine, not inside it, and gets its own write deadline.
type upstreamProxy struct {
	rp           *httputil.ReverseProxy
	writeTimeout time.Duration
}

func newUpstreamProxy(rawURL string, writeTimeout time.Duration) (*upstreamProxy, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("upstream url: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream url %q: missing scheme or host", rawURL)
	}
	return &upstreamProxy{
		rp: &httputil.ReverseProxy{
			Rewrite: func(pr *httputil.ProxyRequest) {
				pr.SetURL(target)
				pr.SetXForwarded()
			},
			ErrorHandler:  upstreamUnavailable,
			FlushInterval: 100 * time.Millisecond,
		},
		writeTimeout: writeTimeout,
	}, nil
}

func (p *upstreamProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.writeTimeout > 0 {
		// writers without deadline support keep the server-wide timeout
		_ = http.NewResponseController(w).SetWriteDeadline(time.Now().Add(p.writeTimeout))
	}
	start := time.Now()
	p.rp.ServeHTTP(w, r)
	log.WithFields(log.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"duration": time.Since(start).Truncate(time.Microsecond).String(),
	}).Debug("proxy: request")
}

func upstreamUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	log.WithError(err).WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Warn("proxy: upstream request failed")
	w.Header().Set("Content-Type", gin.MIMEJSON)
	w.WriteHeader(http.StatusBadGateway)
	_, _ = w.Write([]byte(`{"error":"upstream unavailable"}`))
}
