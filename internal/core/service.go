package core

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/roniherschmann/biolink/internal/ipaddr"
	"github.com/roniherschmann/biolink/internal/referrer"
	"github.com/roniherschmann/biolink/internal/store"
)

type Kind string

const (
	KindVisit Kind = "visit"
	KindClick Kind = "click"
)

type Outcome string

const (
	Stored        Outcome = "stored"
	NotConfigured Outcome = "not_configured"
	Throttled     Outcome = "throttled"
	BreakerOpen   Outcome = "breaker_open"
	Failed        Outcome = "failed"
)

// IngestResult describes what happened to one event. Callers log it; it
// never changes what the client is told.
type IngestResult struct {
	Kind    Kind
	Outcome Outcome
	ID      int64
	IP      *string
	Err     error
}

// VisitInput is one visit as the client reported it. RemoteAddr is the socket
// peer; it keys throttling and is never stored.
type VisitInput struct {
	UserAgent  string
	Referrer   string
	RemoteAddr string
}

type ClickInput struct {
	LinkName   string
	URL        string
	UserAgent  string
	Referrer   string
	RemoteAddr string
}

type Options struct {
	WriteTimeout    time.Duration
	IngestRateRPS   float64
	IngestRateBurst int
	BreakerFailures uint32
	BreakerCooldown time.Duration
	Now             func() time.Time
}

// Service is the ingest side: it normalizes events and appends them to the
// store on a best-effort basis.
type Service struct {
	store        store.Store // nil when no database is configured
	limiter      *rateLimiter
	breaker      *gobreaker.CircuitBreaker[int64]
	writeTimeout time.Duration
	now          func() time.Time
}

func NewService(s store.Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	if opts.IngestRateRPS <= 0 {
		opts.IngestRateRPS = 5
	}
	if opts.IngestRateBurst <= 0 {
		opts.IngestRateBurst = 20
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	failures := opts.BreakerFailures
	return &Service{
		store:   s,
		limiter: newRateLimiter(opts.IngestRateRPS, opts.IngestRateBurst, opts.Now),
		breaker: gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
			Name:    "event-store-writes",
			Timeout: opts.BreakerCooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
		}),
		writeTimeout: opts.WriteTimeout,
		now:          opts.Now,
	}
}

// Configured reports whether events are persisted at all.
func (s *Service) Configured() bool { return s.store != nil }

func (s *Service) RecordVisit(ctx context.Context, h http.Header, in VisitInput) IngestResult {
	res := IngestResult{Kind: KindVisit, IP: clientIP(h)}
	if s.store == nil {
		res.Outcome = NotConfigured
		return res
	}
	if !s.limiter.Allow(throttleKey(res.IP, in.RemoteAddr)) {
		res.Outcome = Throttled
		return res
	}

	ev := &store.VisitEvent{
		VisitedAt: s.now().UTC(),
		UserAgent: in.UserAgent,
		IPAddress: res.IP,
		Referrer:  optional(in.Referrer),
	}
	if platform, ok := referrer.Platform(in.Referrer); ok {
		ev.ReferrerPlatform = &platform
	}

	return s.write(ctx, res, func(ctx context.Context) (int64, error) {
		err := s.store.InsertVisit(ctx, ev)
		return ev.ID, err
	})
}

func (s *Service) RecordClick(ctx context.Context, h http.Header, in ClickInput) IngestResult {
	res := IngestResult{Kind: KindClick, IP: clientIP(h)}
	if s.store == nil {
		res.Outcome = NotConfigured
		return res
	}
	if !s.limiter.Allow(throttleKey(res.IP, in.RemoteAddr)) {
		res.Outcome = Throttled
		return res
	}

	ev := &store.ClickEvent{
		ClickedAt: s.now().UTC(),
		LinkName:  in.LinkName,
		LinkURL:   in.URL,
		UserAgent: optional(in.UserAgent),
		IPAddress: res.IP,
		Referrer:  optional(in.Referrer),
	}

	return s.write(ctx, res, func(ctx context.Context) (int64, error) {
		err := s.store.InsertClick(ctx, ev)
		return ev.ID, err
	})
}

// write runs one insert through the breaker. The insert outlives a client
// that hangs up, bounded by the write timeout.
func (s *Service) write(ctx context.Context, res IngestResult, insert func(context.Context) (int64, error)) IngestResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	id, err := s.breaker.Execute(func() (int64, error) {
		return insert(ctx)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		res.Outcome = BreakerOpen
		res.Err = err
	case err != nil:
		res.Outcome = Failed
		res.Err = err
	default:
		res.Outcome = Stored
		res.ID = id
	}
	return res
}

func clientIP(h http.Header) *string {
	if ip, ok := ipaddr.FromHeaders(h); ok {
		return &ip
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// throttleKey uses the validated client IP, or the socket peer host when
// the request carries no usable forwarding header.
func throttleKey(ip *string, remoteAddr string) string {
	if ip != nil {
		return *ip
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
