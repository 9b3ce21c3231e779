package probe

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/worldland/spark-gateway/internal/domain"
)

// maxBodyBytes bounds how much of a health response is read
const maxBodyBytes = 64 * 1024

// HTTPProber calls service health endpoints over plain HTTP.
// Keep-alives are disabled so no connection outlives a probe.
type HTTPProber struct {
	httpClient *http.Client
	now        func() time.Time
}

// NewHTTPProber creates a new HTTP health prober
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: true,
			},
			// A redirect is the service's answer, not a hop to follow
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		now: time.Now,
	}
}

// Probe issues GET http://host:port/path bounded by timeout. Any completed
// response is a result regardless of status code. Redirects are not
// followed, so a 3xx is reported as is.
func (p *HTTPProber) Probe(ctx context.Context, host string, port int, path string, timeout time.Duration) (domain.ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.ProbeResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	start := p.now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.ProbeResult{}, err
	}
	defer resp.Body.Close()

	// Drain so elapsed covers the full response
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	return domain.ProbeResult{
		StatusCode: resp.StatusCode,
		Elapsed:    p.now().Sub(start),
	}, nil
}

// Compile-time interface check
var _ domain.HealthProber = (*HTTPProber)(nil)
