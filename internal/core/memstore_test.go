package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roniherschmann/biolink/internal/store"
)

// memStore is an in-memory store.Store. Setting err makes every call fail.
type memStore struct {
	mu     sync.Mutex
	visits []store.VisitEvent
	clicks []store.ClickEvent
	nextID int64
	err    error
	calls  int
}

func (m *memStore) fail() error {
	m.calls++
	return m.err
}

func (m *memStore) InsertVisit(_ context.Context, ev *store.VisitEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	m.nextID++
	ev.ID = m.nextID
	m.visits = append(m.visits, *ev)
	return nil
}

func (m *memStore) InsertClick(_ context.Context, ev *store.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	m.nextID++
	ev.ID = m.nextID
	m.clicks = append(m.clicks, *ev)
	return nil
}

func (m *memStore) clicksSince(since time.Time) ([]store.ClickEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	var out []store.ClickEvent
	for _, c := range m.clicks {
		if !c.ClickedAt.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) visitsSince(since time.Time) ([]store.VisitEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	var out []store.VisitEvent
	for _, v := range m.visits {
		if !v.VisitedAt.Before(since) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memStore) CountClicks(_ context.Context, since time.Time) (int64, error) {
	c, err := m.clicksSince(since)
	return int64(len(c)), err
}

func (m *memStore) CountVisits(_ context.Context, since time.Time) (int64, error) {
	v, err := m.visitsSince(since)
	return int64(len(v)), err
}

func (m *memStore) ClickIPs(_ context.Context, since time.Time) ([]string, error) {
	c, err := m.clicksSince(since)
	var out []string
	for _, ev := range c {
		if ev.IPAddress != nil {
			out = append(out, *ev.IPAddress)
		}
	}
	return out, err
}

func (m *memStore) VisitIPs(_ context.Context, since time.Time) ([]string, error) {
	v, err := m.visitsSince(since)
	var out []string
	for _, ev := range v {
		if ev.IPAddress != nil {
			out = append(out, *ev.IPAddress)
		}
	}
	return out, err
}

func (m *memStore) ClickLinkNames(_ context.Context, since time.Time) ([]string, error) {
	c, err := m.clicksSince(since)
	var out []string
	for _, ev := range c {
		out = append(out, ev.LinkName)
	}
	return out, err
}

func (m *memStore) VisitPlatforms(_ context.Context, since time.Time) ([]string, error) {
	v, err := m.visitsSince(since)
	var out []string
	for _, ev := range v {
		if ev.ReferrerPlatform != nil {
			out = append(out, *ev.ReferrerPlatform)
		}
	}
	return out, err
}

func (m *memStore) ClickTimes(_ context.Context, since time.Time) ([]time.Time, error) {
	c, err := m.clicksSince(since)
	var out []time.Time
	for _, ev := range c {
		out = append(out, ev.ClickedAt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, err
}

func (m *memStore) RecentClicks(_ context.Context, since time.Time, limit int) ([]store.ClickEvent, error) {
	c, err := m.clicksSince(since)
	sort.SliceStable(c, func(i, j int) bool { return c[i].ClickedAt.After(c[j].ClickedAt) })
	if len(c) > limit {
		c = c[:limit]
	}
	return c, err
}

func (m *memStore) RecentVisits(_ context.Context, since time.Time, limit int) ([]store.VisitEvent, error) {
	v, err := m.visitsSince(since)
	sort.SliceStable(v, func(i, j int) bool { return v[i].VisitedAt.After(v[j].VisitedAt) })
	if len(v) > limit {
		v = v[:limit]
	}
	return v, err
}

// fixedClock returns a controllable now function.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
