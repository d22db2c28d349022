package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"rate-engine/rate"
)

// Repo 以追加方式记录每一次计算结果和 USDMID。
type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS calculated_rates (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  type TEXT NOT NULL,
  bid REAL NOT NULL,
  ask REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_calculated_rates_type_ts ON calculated_rates(type, ts_ms);

CREATE TABLE IF NOT EXISTS usdmid (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  value REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usdmid_ts ON usdmid(ts_ms);
`)
	if err != nil {
		return fmt.Errorf("migrate history: %w", err)
	}
	return nil
}

func (r *Repo) InsertCalculatedRate(ctx context.Context, cr rate.CalculatedRate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO calculated_rates(type, bid, ask, ts_ms, created_at) VALUES(?, ?, ?, ?, ?)`,
		cr.Type, cr.Bid, cr.Ask, cr.Timestamp.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert calculated rate %s: %w", cr.Type, err)
	}
	return nil
}

func (r *Repo) InsertUSDMid(ctx context.Context, v float64, ts time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO usdmid(value, ts_ms, created_at) VALUES(?, ?, ?)`,
		v, ts.UnixMilli(), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert usdmid: %w", err)
	}
	return nil
}

// LatestCalculatedRate returns the most recent row for rateType.
func (r *Repo) LatestCalculatedRate(ctx context.Context, rateType string) (rate.CalculatedRate, bool, error) {
	rates, err := r.ListCalculatedRates(ctx, rateType, 1)
	if err != nil || len(rates) == 0 {
		return rate.CalculatedRate{}, false, err
	}
	return rates[0], true, nil
}

// ListCalculatedRates returns up to limit rows for rateType, newest first.
func (r *Repo) ListCalculatedRates(ctx context.Context, rateType string, limit int) ([]rate.CalculatedRate, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT type, bid, ask, ts_ms FROM calculated_rates WHERE type = ? ORDER BY ts_ms DESC, id DESC LIMIT ?`,
		rateType, limit)
	if err != nil {
		return nil, fmt.Errorf("query calculated rates %s: %w", rateType, err)
	}
	defer rows.Close()

	var out []rate.CalculatedRate
	for rows.Next() {
		var (
			cr   rate.CalculatedRate
			tsMs int64
		)
		if err := rows.Scan(&cr.Type, &cr.Bid, &cr.Ask, &tsMs); err != nil {
			return nil, err
		}
		cr.Timestamp = time.UnixMilli(tsMs).UTC()
		out = append(out, cr)
	}
	return out, rows.Err()
}

func (r *Repo) LatestUSDMid(ctx context.Context) (float64, time.Time, bool, error) {
	var (
		v    float64
		tsMs int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT value, ts_ms FROM usdmid ORDER BY ts_ms DESC, id DESC LIMIT 1`).Scan(&v, &tsMs)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("query usdmid: %w", err)
	}
	return v, time.UnixMilli(tsMs).UTC(), true, nil
}
