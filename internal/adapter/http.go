package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Options configures a site adapter. Zero values fall back to the site's defaults.
type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

func (o Options) withDefaults(baseURL string) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// session owns the network resources of a single Fetch. Nothing is shared
// between fetches, so concurrent searches never contend on connections.
type session struct {
	source    model.Source
	userAgent string
	transport *http.Transport
	client    *http.Client
	logger    *slog.Logger
	onClose   func()
}

func newSession(source model.Source, opts Options, logger *slog.Logger, onClose func()) *session {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
	}
	logger.Debug("session opened", "source", source)
	return &session{
		source:    source,
		userAgent: opts.UserAgent,
		transport: transport,
		client:    &http.Client{Transport: transport, Timeout: opts.Timeout},
		logger:    logger,
		onClose:   onClose,
	}
}

// close releases the session's connections. It runs on every exit path of a
// Fetch and never fails the fetch.
func (s *session) close() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("session teardown failed", "source", s.source, "panic", r)
		}
		if s.onClose != nil {
			s.onClose()
		}
	}()
	s.transport.CloseIdleConnections()
	s.logger.Debug("session closed", "source", s.source)
}

// get issues a GET and returns the response when the status is 200. Other
// statuses are returned as *model.HTTPError so retry can classify them.
func (s *session) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode),
		}
	}
	return resp, nil
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// skipItem logs an item that could not be extracted. The rest of the batch continues.
func skipItem(logger *slog.Logger, source model.Source, index int, err error) {
	logger.Warn("skipping listing",
		"error", &model.ItemExtractionError{Source: source, Index: index, Err: err},
	)
}
