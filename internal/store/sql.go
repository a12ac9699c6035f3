package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// SQL implements Store on database/sql for SQLite, libsql and Postgres.
type SQL struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to dsn using the driver Driver selects. It does not ping.
func Open(dsn string) (*SQL, error) {
	if dsn == "" {
		return nil, ErrNotConfigured
	}
	name, dialect := Driver(dsn)
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return New(db, dialect), nil
}

func New(db *sql.DB, dialect Dialect) *SQL {
	return &SQL{db: db, dialect: dialect}
}

func (s *SQL) Dialect() Dialect { return s.dialect }

func (s *SQL) Close() error { return s.db.Close() }

func (s *SQL) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQL) InsertVisit(ctx context.Context, ev *VisitEvent) error {
	q := s.dialect.rebind(`INSERT INTO page_visits (visited_at, user_agent, ip_address, referrer, referrer_platform)
		VALUES (?, ?, ?, ?, ?) RETURNING id`)
	err := s.db.QueryRowContext(ctx, q,
		s.dialect.timeArg(ev.VisitedAt), ev.UserAgent, nullArg(ev.IPAddress), nullArg(ev.Referrer), nullArg(ev.ReferrerPlatform),
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("insert visit: %w", schemaErr(err))
	}
	return nil
}

func (s *SQL) InsertClick(ctx context.Context, ev *ClickEvent) error {
	q := s.dialect.rebind(`INSERT INTO link_clicks (clicked_at, link_name, link_url, user_agent, ip_address, referrer)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := s.db.QueryRowContext(ctx, q,
		s.dialect.timeArg(ev.ClickedAt), ev.LinkName, ev.LinkURL, nullArg(ev.UserAgent), nullArg(ev.IPAddress), nullArg(ev.Referrer),
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("insert click: %w", schemaErr(err))
	}
	return nil
}

func (s *SQL) CountClicks(ctx context.Context, since time.Time) (int64, error) {
	return s.count(ctx, "count clicks", `SELECT COUNT(*) FROM link_clicks WHERE clicked_at >= ?`, since)
}

func (s *SQL) CountVisits(ctx context.Context, since time.Time) (int64, error) {
	return s.count(ctx, "count visits", `SELECT COUNT(*) FROM page_visits WHERE visited_at >= ?`, since)
}

func (s *SQL) ClickIPs(ctx context.Context, since time.Time) ([]string, error) {
	return s.column(ctx, "click ips",
		`SELECT ip_address FROM link_clicks WHERE clicked_at >= ? AND ip_address IS NOT NULL ORDER BY id`, since)
}

func (s *SQL) VisitIPs(ctx context.Context, since time.Time) ([]string, error) {
	return s.column(ctx, "visit ips",
		`SELECT ip_address FROM page_visits WHERE visited_at >= ? AND ip_address IS NOT NULL ORDER BY id`, since)
}

func (s *SQL) ClickLinkNames(ctx context.Context, since time.Time) ([]string, error) {
	return s.column(ctx, "click link names",
		`SELECT link_name FROM link_clicks WHERE clicked_at >= ? ORDER BY id`, since)
}

func (s *SQL) VisitPlatforms(ctx context.Context, since time.Time) ([]string, error) {
	return s.column(ctx, "visit platforms",
		`SELECT referrer_platform FROM page_visits WHERE visited_at >= ? AND referrer_platform IS NOT NULL ORDER BY id`, since)
}

func (s *SQL) ClickTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		s.dialect.rebind(`SELECT clicked_at FROM link_clicks WHERE clicked_at >= ? ORDER BY clicked_at ASC, id ASC`),
		s.dialect.timeArg(since))
	if err != nil {
		return nil, fmt.Errorf("click times: %w", schemaErr(err))
	}
	defer rows.Close()
	var res []time.Time
	for rows.Next() {
		var ts dbTime
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("click times: %w", err)
		}
		res = append(res, ts.Time)
	}
	return res, rows.Err()
}

func (s *SQL) RecentClicks(ctx context.Context, since time.Time, limit int) ([]ClickEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT id, clicked_at, link_name, link_url, user_agent, ip_address, referrer
		FROM link_clicks WHERE clicked_at >= ?
		ORDER BY clicked_at DESC, id DESC LIMIT ?`),
		s.dialect.timeArg(since), limit)
	if err != nil {
		return nil, fmt.Errorf("recent clicks: %w", schemaErr(err))
	}
	defer rows.Close()
	var res []ClickEvent
	for rows.Next() {
		var (
			ev          ClickEvent
			ts          dbTime
			ua, ip, ref sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.LinkName, &ev.LinkURL, &ua, &ip, &ref); err != nil {
			return nil, fmt.Errorf("recent clicks: %w", err)
		}
		ev.ClickedAt = ts.Time
		ev.UserAgent, ev.IPAddress, ev.Referrer = ptr(ua), ptr(ip), ptr(ref)
		res = append(res, ev)
	}
	return res, rows.Err()
}

func (s *SQL) RecentVisits(ctx context.Context, since time.Time, limit int) ([]VisitEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(`
		SELECT id, visited_at, user_agent, ip_address, referrer, referrer_platform
		FROM page_visits WHERE visited_at >= ?
		ORDER BY visited_at DESC, id DESC LIMIT ?`),
		s.dialect.timeArg(since), limit)
	if err != nil {
		return nil, fmt.Errorf("recent visits: %w", schemaErr(err))
	}
	defer rows.Close()
	var res []VisitEvent
	for rows.Next() {
		var (
			ev                    VisitEvent
			ts                    dbTime
			ua, ip, ref, platform sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ts, &ua, &ip, &ref, &platform); err != nil {
			return nil, fmt.Errorf("recent visits: %w", err)
		}
		ev.VisitedAt = ts.Time
		ev.UserAgent = ua.String
		ev.IPAddress, ev.Referrer, ev.ReferrerPlatform = ptr(ip), ptr(ref), ptr(platform)
		res = append(res, ev)
	}
	return res, rows.Err()
}

func (s *SQL) count(ctx context.Context, what, q string, since time.Time) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, s.dialect.rebind(q), s.dialect.timeArg(since)).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", what, schemaErr(err))
	}
	return n, nil
}

func (s *SQL) column(ctx context.Context, what, q string, since time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(q), s.dialect.timeArg(since))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, schemaErr(err))
	}
	defer rows.Close()
	var res []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
