package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	persistlog "gigcraft.ai/internal/persistence/log"
	"gigcraft.ai/internal/persistence/snapshot"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/catalogs"
	"gigcraft.ai/internal/sim/tuning"
)

// SQLiteIndex is a queryable secondary index over runs. The command logs and
// snapshots stay the source of truth; writes are queued and dropped when the
// writer falls behind.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropRun      atomic.Uint64
	dropCommand  atomic.Uint64
	dropSnapshot atomic.Uint64
	dropEnding   atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqCommand
	reqSnapshot
	reqEnding
	reqFlush
)

type req struct {
	kind reqKind

	run      runRow
	command  persistlog.Entry
	snapshot snapshotRow
	ending   endingRow
	done     chan struct{}
}

type runRow struct {
	RunID      string
	Seed       int64
	Difficulty string
	PlayerName string
	BandName   string
	StartedAt  string
}

type snapshotRow struct {
	RunID  string
	Week   int
	Path   string
	Digest string
}

type endingRow struct {
	RunID      string
	Week       int
	Reason     string
	Category   string
	Variation  string
	Title      string
	Score      int
	Fans       int
	Money      int
	RecordedAt string
}

type Stats struct {
	DropRunTotal      uint64 `json:"drop_run_total"`
	DropCommandTotal  uint64 `json:"drop_command_total"`
	DropSnapshotTotal uint64 `json:"drop_snapshot_total"`
	DropEndingTotal   uint64 `json:"drop_ending_total"`
	QueueDepth        int    `json:"queue_depth"`
	QueueCapacity     int    `json:"queue_capacity"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
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

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 8192),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
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
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			player_name TEXT NOT NULL,
			band_name TEXT NOT NULL,
			started_at TEXT NOT NULL,
			last_week INTEGER NOT NULL DEFAULT 1,
			last_digest TEXT NOT NULL DEFAULT '',
			commands INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			week INTEGER NOT NULL,
			kind TEXT NOT NULL,
			action TEXT NOT NULL,
			digest TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_action ON commands(action, run_id);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			run_id TEXT NOT NULL,
			week INTEGER NOT NULL,
			path TEXT NOT NULL,
			digest TEXT NOT NULL,
			PRIMARY KEY (run_id, week)
		);`,
		`CREATE TABLE IF NOT EXISTS endings (
			run_id TEXT PRIMARY KEY,
			week INTEGER NOT NULL,
			reason TEXT NOT NULL,
			category TEXT NOT NULL,
			variation TEXT NOT NULL,
			title TEXT NOT NULL,
			score INTEGER NOT NULL,
			fans INTEGER NOT NULL,
			money INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_endings_fans ON endings(fans);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

// RecordRun registers a freshly created run.
func (s *SQLiteIndex) RecordRun(st *career.GameState) {
	if s == nil || st == nil {
		return
	}
	s.enqueue(req{kind: reqRun, run: runRow{
		RunID:      st.RunID,
		Seed:       st.Seed,
		Difficulty: st.Difficulty,
		PlayerName: st.Player.Name,
		BandName:   st.Player.BandName,
		StartedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}}, &s.dropRun)
}

func (s *SQLiteIndex) WriteCommand(e persistlog.Entry) error {
	if s == nil {
		return nil
	}
	s.enqueue(req{kind: reqCommand, command: e}, &s.dropCommand)
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, h snapshot.Header) {
	if s == nil {
		return
	}
	s.enqueue(req{kind: reqSnapshot, snapshot: snapshotRow{
		RunID:  h.RunID,
		Week:   h.Week,
		Path:   path,
		Digest: h.Digest,
	}}, &s.dropSnapshot)
}

// RecordEnding stores the final result of a finished run. Unfinished runs are
// ignored.
func (s *SQLiteIndex) RecordEnding(st *career.GameState) {
	if s == nil || st == nil || !st.IsGameOver || st.Ending == nil {
		return
	}
	s.enqueue(req{kind: reqEnding, ending: endingRow{
		RunID:      st.RunID,
		Week:       st.Week,
		Reason:     string(st.GameOverReason),
		Category:   st.Ending.Category,
		Variation:  st.Ending.Variation,
		Title:      st.Ending.Title,
		Score:      st.Ending.Score,
		Fans:       st.Player.Fans,
		Money:      st.Player.Money,
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}}, &s.dropEnding)
}

// Flush blocks until everything queued so far is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		DropRunTotal:      s.dropRun.Load(),
		DropCommandTotal:  s.dropCommand.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
		DropEndingTotal:   s.dropEnding.Load(),
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
	}
}

// UpsertCatalogs stores the content and tuning a server runs with, keyed by
// digest, so a run's catalog_digest can be traced back to real data.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil || cats == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	add := func(name, digest string, v any) {
		b, err := json.Marshal(v)
		if err != nil || len(b) == 0 {
			return
		}
		rows = append(rows, kv{name: name, digest: digest, json: b})
	}
	add("events", cats.Events.Digest, cats.Events.List)
	add("arcs", cats.Arcs.Digest, cats.Arcs.List)
	add("temptations", cats.Temptations.Digest, cats.Temptations.List)
	add("venues", cats.Venues.Digest, cats.Venues.List)
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('catalog_digest',?)`, cats.Digest); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// EndingRow is one finished run as the leaderboard reports it.
type EndingRow struct {
	RunID      string `json:"run_id"`
	BandName   string `json:"band_name"`
	Week       int    `json:"week"`
	Reason     string `json:"reason"`
	Category   string `json:"category"`
	Variation  string `json:"variation"`
	Title      string `json:"title"`
	Score      int    `json:"score"`
	Fans       int    `json:"fans"`
	Money      int    `json:"money"`
	RecordedAt string `json:"recorded_at"`
}

// TopEndings lists finished runs by final fan count, biggest first.
func (s *SQLiteIndex) TopEndings(ctx context.Context, limit int) ([]EndingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.run_id, COALESCE(r.band_name,''), e.week, e.reason, e.category, e.variation,
		       e.title, e.score, e.fans, e.money, e.recorded_at
		FROM endings e LEFT JOIN runs r ON r.run_id = e.run_id
		ORDER BY e.fans DESC, e.run_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []EndingRow
	for rows.Next() {
		var e EndingRow
		if err := rows.Scan(&e.RunID, &e.BandName, &e.Week, &e.Reason, &e.Category, &e.Variation,
			&e.Title, &e.Score, &e.Fans, &e.Money, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// RunProgress is the latest indexed position of a run.
type RunProgress struct {
	LastWeek   int
	LastDigest string
	Commands   int
}

func (s *SQLiteIndex) Run(ctx context.Context, runID string) (RunProgress, error) {
	var p RunProgress
	err := s.db.QueryRowContext(ctx,
		`SELECT last_week, last_digest, commands FROM runs WHERE run_id = ?`, runID,
	).Scan(&p.LastWeek, &p.LastDigest, &p.Commands)
	return p, err
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR IGNORE INTO runs(run_id,seed,difficulty,player_name,band_name,started_at) VALUES(?,?,?,?,?,?)`)
	insertCommand, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(run_id,seq,week,kind,action,digest,raw_json) VALUES(?,?,?,?,?,?,?)`)
	touchRun, _ := s.db.Prepare(`UPDATE runs SET last_week = ?, last_digest = ?, commands = MAX(commands, ?) WHERE run_id = ?`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(run_id,week,path,digest) VALUES(?,?,?,?)`)
	insertEnding, _ := s.db.Prepare(`INSERT OR REPLACE INTO endings(run_id,week,reason,category,variation,title,score,fans,money,recorded_at) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRun, insertCommand, touchRun, insertSnapshot, insertEnding} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) bool {
		if st == nil {
			return false
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return false
		}
		opCount++
		return true
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			ru := r.run
			exec(insertRun, ru.RunID, ru.Seed, ru.Difficulty, ru.PlayerName, ru.BandName, ru.StartedAt)

		case reqCommand:
			e := r.command
			raw, _ := json.Marshal(e)
			if !exec(insertCommand, e.RunID, e.Seq, e.Week, string(e.Command.Kind), string(e.Command.Action), e.Digest, string(raw)) {
				continue
			}
			exec(touchRun, e.Week, e.Digest, e.Seq, e.RunID)

		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.RunID, sn.Week, sn.Path, sn.Digest)

		case reqEnding:
			en := r.ending
			exec(insertEnding, en.RunID, en.Week, en.Reason, en.Category, en.Variation, en.Title, en.Score, en.Fans, en.Money, en.RecordedAt)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
