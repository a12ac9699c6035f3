package core

import (
	"cmp"
	"context"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roniherschmann/biolink/internal/store"
)

const (
	// recentFetchLimit bounds the recent-event queries; the report shows
	// only the first recentShown of them.
	recentFetchLimit = 50
	recentShown      = 10
)

type Window string

const (
	Window1d  Window = "1d"
	Window7d  Window = "7d"
	Window30d Window = "30d"
	WindowAll Window = "all"
)

// ParseWindow maps the timeFilter parameter to a Window. Empty means 7d;
// anything unrecognized means all time.
func ParseWindow(s string) Window {
	switch w := Window(s); w {
	case "":
		return Window7d
	case Window1d, Window7d, Window30d:
		return w
	default:
		return WindowAll
	}
}

// Since is the inclusive lower bound of the window relative to now.
func (w Window) Since(now time.Time) time.Time {
	day := 24 * time.Hour
	switch w {
	case Window1d:
		return now.Add(-day)
	case Window7d:
		return now.Add(-7 * day)
	case Window30d:
		return now.Add(-30 * day)
	default:
		return time.Unix(0, 0).UTC()
	}
}

type LinkCount struct {
	Name   string `json:"name"`
	Clicks int    `json:"clicks"`
}

type PlatformCount struct {
	Platform string `json:"platform"`
	Visits   int    `json:"visits"`
}

type DayCount struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

// Report is the dashboard summary for one window. UniqueVisitors counts
// distinct non-null IPs across clicks and visits, so people behind one NAT
// count once and one person on two networks counts twice.
type Report struct {
	TotalClicks    int64              `json:"totalClicks"`
	TotalVisits    int64              `json:"totalVisits"`
	UniqueVisitors int                `json:"uniqueVisitors"`
	TopLinks       []LinkCount        `json:"topLinks"`
	TopPlatforms   []PlatformCount    `json:"topPlatforms"`
	RecentClicks   []store.ClickEvent `json:"recentClicks"`
	RecentVisits   []store.VisitEvent `json:"recentVisits"`
	ClicksByDay    []DayCount         `json:"clicksByDay"`
}

// Aggregator builds reports from the read side of the store.
type Aggregator struct {
	store store.Store // nil when no database is configured
	now   func() time.Time
}

func NewAggregator(s store.Store, now func() time.Time) *Aggregator {
	if now == nil {
		now = time.Now
	}
	return &Aggregator{store: s, now: now}
}

// Report runs the window queries concurrently and folds them into a Report.
// Errors wrap store.ErrNotConfigured or store.ErrSchemaMissing when those
// are the cause.
func (a *Aggregator) Report(ctx context.Context, w Window) (*Report, error) {
	if a.store == nil {
		return nil, store.ErrNotConfigured
	}
	since := w.Since(a.now().UTC())

	var (
		totalClicks, totalVisits int64
		clickIPs, visitIPs       []string
		linkNames, platforms     []string
		recentClicks             []store.ClickEvent
		recentVisits             []store.VisitEvent
		clickTimes               []time.Time
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		totalClicks, err = a.store.CountClicks(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		totalVisits, err = a.store.CountVisits(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		clickIPs, err = a.store.ClickIPs(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		visitIPs, err = a.store.VisitIPs(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		linkNames, err = a.store.ClickLinkNames(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		platforms, err = a.store.VisitPlatforms(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		recentClicks, err = a.store.RecentClicks(ctx, since, recentFetchLimit)
		return err
	})
	g.Go(func() (err error) {
		recentVisits, err = a.store.RecentVisits(ctx, since, recentFetchLimit)
		return err
	})
	g.Go(func() (err error) {
		clickTimes, err = a.store.ClickTimes(ctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		TotalClicks:    totalClicks,
		TotalVisits:    totalVisits,
		UniqueVisitors: UniqueVisitors(clickIPs, visitIPs),
		TopLinks:       []LinkCount{},
		TopPlatforms:   []PlatformCount{},
		RecentClicks:   firstN(recentClicks, recentShown),
		RecentVisits:   firstN(recentVisits, recentShown),
		ClicksByDay:    ClicksByDay(clickTimes),
	}
	for _, c := range Rank(linkNames) {
		rep.TopLinks = append(rep.TopLinks, LinkCount{Name: c.Key, Clicks: c.Count})
	}
	for _, c := range Rank(platforms) {
		rep.TopPlatforms = append(rep.TopPlatforms, PlatformCount{Platform: c.Key, Visits: c.Count})
	}
	return rep, nil
}

// UniqueVisitors counts distinct non-empty IPs across all given lists.
func UniqueVisitors(ipLists ...[]string) int {
	seen := make(map[string]struct{})
	for _, ips := range ipLists {
		for _, ip := range ips {
			if ip != "" {
				seen[ip] = struct{}{}
			}
		}
	}
	return len(seen)
}

type Count struct {
	Key   string
	Count int
}

// Rank counts occurrences and sorts by count descending. Equal counts keep
// the order in which each key was first seen.
func Rank(values []string) []Count {
	idx := make(map[string]int)
	var out []Count
	for _, v := range values {
		if i, ok := idx[v]; ok {
			out[i].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, Count{Key: v, Count: 1})
	}
	slices.SortStableFunc(out, func(a, b Count) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}

// ClicksByDay buckets timestamps by UTC calendar date, oldest date first.
func ClicksByDay(times []time.Time) []DayCount {
	counts := make(map[string]int)
	for _, t := range times {
		counts[t.UTC().Format(time.DateOnly)]++
	}
	out := make([]DayCount, 0, len(counts))
	for date, n := range counts {
		out = append(out, DayCount{Date: date, Clicks: n})
	}
	slices.SortFunc(out, func(a, b DayCount) int {
		return cmp.Compare(a.Date, b.Date)
	})
	return out
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		s = s[:n]
	}
	if s == nil {
		return []T{}
	}
	return s
}
