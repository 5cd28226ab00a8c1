package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/bozoleague/propline/internal/domain/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS bets (
	id          TEXT PRIMARY KEY,
	member_id   TEXT NOT NULL,
	cohort_id   TEXT NOT NULL,
	season      INTEGER NOT NULL,
	week        INTEGER NOT NULL,
	raw_text    TEXT NOT NULL,
	norm_text   TEXT NOT NULL,
	line_id     TEXT,
	price       INTEGER,
	direction   TEXT NOT NULL,
	category    TEXT NOT NULL,
	status      TEXT NOT NULL,
	confidence  REAL NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	resolved_at TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS bets_submission
	ON bets(member_id, season, week, norm_text);
CREATE INDEX IF NOT EXISTS bets_cycle_status
	ON bets(season, week, status);

CREATE TABLE IF NOT EXISTS standings (
	member_id   TEXT NOT NULL,
	cohort_id   TEXT NOT NULL,
	hits        INTEGER NOT NULL DEFAULT 0,
	misses      INTEGER NOT NULL DEFAULT 0,
	pushes      INTEGER NOT NULL DEFAULT 0,
	voids       INTEGER NOT NULL DEFAULT 0,
	risk_misses INTEGER NOT NULL DEFAULT 0,
	safe_misses INTEGER NOT NULL DEFAULT 0,
	seq         INTEGER,
	PRIMARY KEY (member_id, cohort_id)
);

CREATE TABLE IF NOT EXISTS policies (
	cohort_id TEXT PRIMARY KEY,
	min_price INTEGER NOT NULL,
	max_price INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS members (
	cohort_id TEXT NOT NULL,
	member_id TEXT NOT NULL,
	PRIMARY KEY (cohort_id, member_id)
);

CREATE TABLE IF NOT EXISTS worst_miss (
	cycle_key TEXT PRIMARY KEY,
	bet_id    TEXT NOT NULL
);
`

// SQLiteStore is a Store persisted in a SQLite database. It relies on
// the database for the per-bet atomic compare-and-set: the resolve
// UPDATE is conditional on status = PENDING.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the
// schema. Use ":memory:" for an ephemeral store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent resolution workers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Create persists a new bet, rejecting duplicate submissions.
func (s *SQLiteStore) Create(ctx context.Context, bet model.Bet, normText string) error {
	var lineID sql.NullString
	if bet.LineID != nil {
		lineID = sql.NullString{String: *bet.LineID, Valid: true}
	}
	var price sql.NullInt64
	if bet.Price != nil {
		price = sql.NullInt64{Int64: int64(*bet.Price), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bets (id, member_id, cohort_id, season, week, raw_text, norm_text,
			line_id, price, direction, category, status, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bet.ID, bet.MemberID, bet.CohortID, bet.Cycle.Season, bet.Cycle.Week,
		bet.RawText, normText, lineID, price, string(bet.Direction),
		string(bet.Category), string(bet.Status), bet.Confidence,
		bet.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s already submitted this for %s", ErrDuplicate, bet.MemberID, bet.Cycle.Key())
		}
		return fmt.Errorf("insert bet: %w", err)
	}
	return nil
}

// Get returns a bet by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.Bet, error) {
	row := s.db.QueryRowContext(ctx, betSelect+` WHERE id = ?`, id)
	bet, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bet{}, fmt.Errorf("%w: bet %s", ErrNotFound, id)
	}
	return bet, err
}

// FindSubmission returns the bet created for a submission key.
func (s *SQLiteStore) FindSubmission(ctx context.Context, memberID string, cycle model.Cycle, normText string) (model.Bet, error) {
	row := s.db.QueryRowContext(ctx,
		betSelect+` WHERE member_id = ? AND season = ? AND week = ? AND norm_text = ?`,
		memberID, cycle.Season, cycle.Week, normText)
	bet, err := scanBet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bet{}, ErrNotFound
	}
	return bet, err
}

// ListPending returns the cycle's PENDING bets in submission order.
func (s *SQLiteStore) ListPending(ctx context.Context, cycle model.Cycle) ([]model.Bet, error) {
	return s.listBets(ctx,
		betSelect+` WHERE season = ? AND week = ? AND status = ? ORDER BY rowid`,
		cycle.Season, cycle.Week, string(model.StatusPending))
}

// ListByCycle returns all of the cycle's bets in submission order.
func (s *SQLiteStore) ListByCycle(ctx context.Context, cycle model.Cycle) ([]model.Bet, error) {
	return s.listBets(ctx,
		betSelect+` WHERE season = ? AND week = ? ORDER BY rowid`,
		cycle.Season, cycle.Week)
}

func (s *SQLiteStore) listBets(ctx context.Context, query string, args ...any) ([]model.Bet, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bets: %w", err)
	}
	defer rows.Close()

	var out []model.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, bet)
	}
	return out, rows.Err()
}

// Resolve performs the PENDING -> terminal compare-and-set.
func (s *SQLiteStore) Resolve(ctx context.Context, id string, status model.Status, at time.Time) (model.Bet, bool, error) {
	if !status.Terminal() {
		return model.Bet{}, false, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE bets SET status = ?, resolved_at = ?
		WHERE id = ? AND status = ?`,
		string(status), at.UTC().Format(time.RFC3339Nano), id, string(model.StatusPending))
	if err != nil {
		return model.Bet{}, false, fmt.Errorf("resolve bet %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Bet{}, false, fmt.Errorf("resolve bet %s: %w", id, err)
	}

	bet, err := s.Get(ctx, id)
	if err != nil {
		return model.Bet{}, false, err
	}
	return bet, affected > 0, nil
}

// Apply folds one terminal transition into the member's counters.
func (s *SQLiteStore) Apply(ctx context.Context, memberID, cohortID string, category model.Category, status model.Status) error {
	if !status.Terminal() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	var hits, misses, pushes, voids, riskMisses, safeMisses int
	switch status {
	case model.StatusHit:
		hits = 1
	case model.StatusMiss:
		misses = 1
		if category == model.CategoryRisk {
			riskMisses = 1
		} else {
			safeMisses = 1
		}
	case model.StatusPush:
		pushes = 1
	case model.StatusVoid:
		voids = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO standings (member_id, cohort_id, hits, misses, pushes, voids, risk_misses, safe_misses, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM standings))
		ON CONFLICT (member_id, cohort_id) DO UPDATE SET
			hits = hits + excluded.hits,
			misses = misses + excluded.misses,
			pushes = pushes + excluded.pushes,
			voids = voids + excluded.voids,
			risk_misses = risk_misses + excluded.risk_misses,
			safe_misses = safe_misses + excluded.safe_misses`,
		memberID, cohortID, hits, misses, pushes, voids, riskMisses, safeMisses)
	if err != nil {
		return fmt.Errorf("apply standing: %w", err)
	}
	return nil
}

// Standings returns entries sorted by key descending.
func (s *SQLiteStore) Standings(ctx context.Context, cohortID string, sortBy SortKey) ([]model.StandingEntry, error) {
	query := `SELECT member_id, cohort_id, hits, misses, pushes, voids, risk_misses, safe_misses
		FROM standings`
	var args []any
	if cohortID != "" {
		query += ` WHERE cohort_id = ?`
		args = append(args, cohortID)
	}
	query += ` ORDER BY seq` // first-seen order; final sort happens below

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}
	defer rows.Close()

	var out []model.StandingEntry
	for rows.Next() {
		var e model.StandingEntry
		if err := rows.Scan(&e.MemberID, &e.CohortID, &e.Hits, &e.Misses, &e.Pushes, &e.Voids, &e.RiskMisses, &e.SafeMisses); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortStandings(out, sortBy)
	return out, nil
}

// Policy returns the cohort's price policy.
func (s *SQLiteStore) Policy(ctx context.Context, cohortID string) (model.Policy, error) {
	var p model.Policy
	err := s.db.QueryRowContext(ctx,
		`SELECT min_price, max_price FROM policies WHERE cohort_id = ?`, cohortID).
		Scan(&p.MinPrice, &p.MaxPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Policy{}, fmt.Errorf("%w: %s", ErrNoPolicy, cohortID)
	}
	if err != nil {
		return model.Policy{}, fmt.Errorf("get policy: %w", err)
	}
	return p, nil
}

// SetPolicy installs a cohort policy.
func (s *SQLiteStore) SetPolicy(ctx context.Context, cohortID string, policy model.Policy) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies (cohort_id, min_price, max_price) VALUES (?, ?, ?)
		ON CONFLICT (cohort_id) DO UPDATE SET
			min_price = excluded.min_price, max_price = excluded.max_price`,
		cohortID, policy.MinPrice, policy.MaxPrice)
	if err != nil {
		return fmt.Errorf("set policy: %w", err)
	}
	return nil
}

// IsMember reports cohort membership.
func (s *SQLiteStore) IsMember(ctx context.Context, cohortID, memberID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM members WHERE cohort_id = ? AND member_id = ?`, cohortID, memberID).
		Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return true, nil
}

// AddMember registers a member with a cohort.
func (s *SQLiteStore) AddMember(ctx context.Context, cohortID, memberID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (cohort_id, member_id) VALUES (?, ?)
		ON CONFLICT (cohort_id, member_id) DO NOTHING`,
		cohortID, memberID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// SetWorstMiss records the cycle's worst-miss designation.
func (s *SQLiteStore) SetWorstMiss(ctx context.Context, cycle model.Cycle, betID string) error {
	if _, err := s.Get(ctx, betID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO worst_miss (cycle_key, bet_id) VALUES (?, ?)
		ON CONFLICT (cycle_key) DO UPDATE SET bet_id = excluded.bet_id`,
		cycle.Key(), betID)
	if err != nil {
		return fmt.Errorf("set worst miss: %w", err)
	}
	return nil
}

// WorstMiss returns the cycle's designated bet.
func (s *SQLiteStore) WorstMiss(ctx context.Context, cycle model.Cycle) (model.Bet, error) {
	var betID string
	err := s.db.QueryRowContext(ctx,
		`SELECT bet_id FROM worst_miss WHERE cycle_key = ?`, cycle.Key()).
		Scan(&betID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Bet{}, fmt.Errorf("%w: no worst miss for %s", ErrNotFound, cycle.Key())
	}
	if err != nil {
		return model.Bet{}, fmt.Errorf("get worst miss: %w", err)
	}
	return s.Get(ctx, betID)
}

const betSelect = `
	SELECT id, member_id, cohort_id, season, week, raw_text,
		line_id, price, direction, category, status, confidence,
		created_at, resolved_at
	FROM bets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBet(row rowScanner) (model.Bet, error) {
	var (
		bet        model.Bet
		lineID     sql.NullString
		price      sql.NullInt64
		direction  string
		category   string
		status     string
		createdAt  string
		resolvedAt sql.NullString
	)
	err := row.Scan(&bet.ID, &bet.MemberID, &bet.CohortID, &bet.Cycle.Season, &bet.Cycle.Week,
		&bet.RawText, &lineID, &price, &direction, &category, &status,
		&bet.Confidence, &createdAt, &resolvedAt)
	if err != nil {
		return model.Bet{}, err
	}

	if lineID.Valid {
		v := lineID.String
		bet.LineID = &v
	}
	if price.Valid {
		v := int(price.Int64)
		bet.Price = &v
	}
	bet.Direction = model.Direction(direction)

	// Unknown enum values are rejected here, never defaulted.
	if bet.Category, err = model.ParseCategory(category); err != nil {
		return model.Bet{}, fmt.Errorf("bet %s: %w", bet.ID, err)
	}
	if bet.Status, err = model.ParseStatus(status); err != nil {
		return model.Bet{}, fmt.Errorf("bet %s: %w", bet.ID, err)
	}

	if bet.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.Bet{}, fmt.Errorf("bet %s created_at: %w", bet.ID, err)
	}
	if resolvedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, resolvedAt.String)
		if err != nil {
			return model.Bet{}, fmt.Errorf("bet %s resolved_at: %w", bet.ID, err)
		}
		bet.ResolvedAt = &t
	}
	return bet, nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint
// failure without depending on driver-internal error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
