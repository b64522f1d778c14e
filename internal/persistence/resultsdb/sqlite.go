// Package resultsdb keeps a sqlite index of finished games and settled
// rounds. It is a read model for the leaderboard and post-game review; the
// live game never depends on it, so writes are fire-and-forget.
package resultsdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB

	ch chan req
	wg sync.WaitGroup

	// mu orders in-flight sends against close(ch); without it a write that
	// passed the closed check could send on a closed channel.
	mu     sync.RWMutex
	closed bool
}

type reqKind int

const (
	reqResult reqKind = iota + 1
	reqRound
)

type req struct {
	kind   reqKind
	result ResultRow
	round  RoundRow
}

// ResultRow is one finished game.
type ResultRow struct {
	SessionID    string
	Team         string
	Player       string
	Goal         int
	Savings      int
	RoundsPlayed int
	Wellbeing    int
	Time         int
	Status       string
	RecordedAt   string
}

// RoundRow is one settled round of a session.
type RoundRow struct {
	SessionID string
	Round     int
	Card      string
	Choice    string
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL suits the append-style workload; NORMAL durability is fine for a
	// secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS results (
			session_id TEXT PRIMARY KEY,
			team TEXT NOT NULL,
			player TEXT NOT NULL,
			goal INTEGER NOT NULL,
			savings INTEGER NOT NULL,
			rounds_played INTEGER NOT NULL,
			wellbeing INTEGER NOT NULL,
			time INTEGER NOT NULL,
			status TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_savings ON results(savings DESC);`,
		`CREATE TABLE IF NOT EXISTS rounds (
			session_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			card TEXT NOT NULL,
			choice TEXT NOT NULL,
			PRIMARY KEY (session_id, round)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()

	s.wg.Wait()
	return s.db.Close()
}

// WriteResult records a finished game. Drops the row if the writer falls
// behind; the round log remains the source of truth.
func (s *Store) WriteResult(r ResultRow) {
	if s == nil {
		return
	}
	if r.RecordedAt == "" {
		r.RecordedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	s.enqueue(req{kind: reqResult, result: r})
}

func (s *Store) WriteRound(r RoundRow) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqRound, round: r})
}

func (s *Store) enqueue(r req) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- r:
	default:
	}
}

// Leaderboard returns finished games ordered by savings, then by fewest
// rounds used.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]ResultRow, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, team, player, goal, savings, rounds_played, wellbeing, time, status, recorded_at
		 FROM results ORDER BY savings DESC, rounds_played ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ResultRow
	for rows.Next() {
		var r ResultRow
		if err := rows.Scan(&r.SessionID, &r.Team, &r.Player, &r.Goal, &r.Savings,
			&r.RoundsPlayed, &r.Wellbeing, &r.Time, &r.Status, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SessionRounds returns the settled rounds of one session in order.
func (s *Store) SessionRounds(ctx context.Context, sessionID string) ([]RoundRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, round, card, choice FROM rounds WHERE session_id = ? ORDER BY round`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoundRow
	for rows.Next() {
		var r RoundRow
		if err := rows.Scan(&r.SessionID, &r.Round, &r.Card, &r.Choice); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) loop() {
	insertResult, _ := s.db.Prepare(`INSERT OR REPLACE INTO results(session_id,team,player,goal,savings,rounds_played,wellbeing,time,status,recorded_at) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertRound, _ := s.db.Prepare(`INSERT OR REPLACE INTO rounds(session_id,round,card,choice) VALUES(?,?,?,?)`)
	defer func() {
		if insertResult != nil {
			_ = insertResult.Close()
		}
		if insertRound != nil {
			_ = insertRound.Close()
		}
	}()

	for r := range s.ch {
		switch r.kind {
		case reqResult:
			if insertResult == nil {
				continue
			}
			row := r.result
			_, _ = insertResult.Exec(row.SessionID, row.Team, row.Player, row.Goal,
				row.Savings, row.RoundsPlayed, row.Wellbeing, row.Time, row.Status, row.RecordedAt)
		case reqRound:
			if insertRound == nil {
				continue
			}
			row := r.round
			_, _ = insertRound.Exec(row.SessionID, row.Round, row.Card, row.Choice)
		}
	}
}
