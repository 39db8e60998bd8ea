/*
Package sqlite provides the SQLite-backed records.Store.

PURPOSE:
  Production persistence for the records engine. The same patterns apply to
  PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  records:        One row per record; the only table that is ever UPDATEd
                  (status and derived-input fields on transition).
  settlements:    Append-only settlement events.
  justifications: Append-only justification events.
  notifications:  Append-only delivery attempts.

APPEND-ONLY ENFORCEMENT:
  Event tables see INSERTs only. Update() persists a record by updating its
  row and inserting whatever event rows the in-memory value has beyond what
  is already stored; no event row is ever rewritten or deleted.

WAL MODE:
  The database is opened with WAL so readers do not block the single
  writer, and crash recovery is cheap.

USAGE:
  st, err := sqlite.New("./data/records.db")   // ":memory:" for tests
  defer st.Close()

SEE ALSO:
  - records/store.go: Interface definition
  - records/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/campusops/records-engine/records"
)

// Store implements records.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		category TEXT,
		grp TEXT,
		total INTEGER NOT NULL DEFAULT 0,
		paid INTEGER NOT NULL DEFAULT 0,
		due_date TEXT,
		occurred_on TEXT,
		unjustified INTEGER NOT NULL DEFAULT 0,
		issued_on TEXT,
		expires_on TEXT,
		submitted_at TEXT,
		validated_at TEXT,
		printed_at TEXT,
		expired_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_kind_subject
		ON records(kind, subject_id);
	CREATE INDEX IF NOT EXISTS idx_records_kind_status
		ON records(kind, status);
	CREATE INDEX IF NOT EXISTS idx_records_grp
		ON records(grp) WHERE grp IS NOT NULL;

	-- Append-only event tables. No UPDATE, no DELETE.
	CREATE TABLE IF NOT EXISTS settlements (
		record_id TEXT NOT NULL REFERENCES records(id),
		seq INTEGER NOT NULL,
		date TEXT NOT NULL,
		amount INTEGER NOT NULL,
		method TEXT,
		reference TEXT,
		actor TEXT,
		PRIMARY KEY (record_id, seq)
	);

	CREATE TABLE IF NOT EXISTS justifications (
		record_id TEXT NOT NULL REFERENCES records(id),
		seq INTEGER NOT NULL,
		date TEXT NOT NULL,
		reason TEXT NOT NULL,
		documents_json TEXT,
		PRIMARY KEY (record_id, seq)
	);

	CREATE TABLE IF NOT EXISTS notifications (
		record_id TEXT NOT NULL REFERENCES records(id),
		seq INTEGER NOT NULL,
		channel TEXT NOT NULL,
		at TEXT NOT NULL,
		recipient TEXT,
		message TEXT,
		outcome TEXT NOT NULL,
		PRIMARY KEY (record_id, seq)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

func (s *Store) Create(ctx context.Context, rec records.Record) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return records.Record{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (id, subject_id, kind, status, category, grp,
			total, paid, due_date, occurred_on, unjustified,
			issued_on, expires_on, submitted_at, validated_at, printed_at, expired_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.ID), string(rec.SubjectID), string(rec.Kind), string(rec.Status),
		rec.Category, rec.Group, rec.Total, rec.Paid,
		dateText(rec.DueDate), dateText(rec.OccurredOn), boolInt(rec.Unjustified),
		dateText(rec.IssuedOn), dateText(rec.ExpiresOn),
		timeText(rec.SubmittedAt), timeText(rec.ValidatedAt), timeText(rec.PrintedAt), timeText(rec.ExpiredAt),
		rec.CreatedAt.UTC().Format(time.RFC3339), rec.UpdatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return records.Record{}, fmt.Errorf("insert record: %w", err)
	}

	if err := appendEvents(ctx, tx, rec, 0, 0, 0); err != nil {
		return records.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return records.Record{}, err
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, id records.RecordID) (records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, id)
}

func (s *Store) Update(ctx context.Context, rec records.Record) (records.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return records.Record{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE records SET status = ?, paid = ?, unjustified = ?,
			issued_on = ?, expires_on = ?,
			submitted_at = ?, validated_at = ?, printed_at = ?, expired_at = ?,
			updated_at = ?
		WHERE id = ?`,
		string(rec.Status), rec.Paid, boolInt(rec.Unjustified),
		dateText(rec.IssuedOn), dateText(rec.ExpiresOn),
		timeText(rec.SubmittedAt), timeText(rec.ValidatedAt), timeText(rec.PrintedAt), timeText(rec.ExpiredAt),
		rec.UpdatedAt.UTC().Format(time.RFC3339),
		string(rec.ID))
	if err != nil {
		return records.Record{}, fmt.Errorf("update record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return records.Record{}, records.ErrNotFound
	}

	// Insert only the event rows the stored copy does not have yet.
	nSettle, nJustify, nNotify, err := eventCounts(ctx, tx, rec.ID)
	if err != nil {
		return records.Record{}, err
	}
	if err := appendEvents(ctx, tx, rec, nSettle, nJustify, nNotify); err != nil {
		return records.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return records.Record{}, err
	}
	return rec, nil
}

func (s *Store) Query(ctx context.Context, f records.Filter) ([]records.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id FROM records`
	var clauses []string
	var args []any
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(f.Kind))
	}
	if f.SubjectID != "" {
		clauses = append(clauses, "subject_id = ?")
		args = append(args, string(f.SubjectID))
	}
	if f.Group != "" {
		clauses = append(clauses, "grp = ?")
		args = append(args, f.Group)
	}
	if len(f.Statuses) > 0 {
		ph := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			ph[i] = "?"
			args = append(args, string(st))
		}
		clauses = append(clauses, "status IN ("+strings.Join(ph, ", ")+")")
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []records.RecordID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, records.RecordID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Date-window filtering happens in memory: EventDate depends on kind,
	// and that rule should live in exactly one place.
	var out []records.Record
	for _, id := range ids {
		rec, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	sortByEventDate(out)
	return out, nil
}

// =============================================================================
// ROW MAPPING
// =============================================================================

func (s *Store) get(ctx context.Context, id records.RecordID) (records.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, subject_id, kind, status, category, grp,
			total, paid, due_date, occurred_on, unjustified,
			issued_on, expires_on, submitted_at, validated_at, printed_at, expired_at,
			created_at, updated_at
		FROM records WHERE id = ?`, string(id))

	var (
		rec                                            records.Record
		idS, subjectS, kindS, statusS                  string
		category, grp                                  sql.NullString
		due, occurred, issued, expires                 sql.NullString
		submittedAt, validatedAt, printedAt, expiredAt sql.NullString
		unjustified                                    int
		createdAt, updatedAt                           string
	)
	err := row.Scan(&idS, &subjectS, &kindS, &statusS, &category, &grp,
		&rec.Total, &rec.Paid, &due, &occurred, &unjustified,
		&issued, &expires, &submittedAt, &validatedAt, &printedAt, &expiredAt,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return records.Record{}, records.ErrNotFound
	}
	if err != nil {
		return records.Record{}, err
	}

	rec.ID = records.RecordID(idS)
	rec.SubjectID = records.SubjectID(subjectS)
	rec.Kind = records.Kind(kindS)
	rec.Status = records.Status(statusS)
	rec.Category = category.String
	rec.Group = grp.String
	rec.Unjustified = unjustified != 0
	rec.DueDate = parseDate(due)
	rec.OccurredOn = parseDate(occurred)
	rec.IssuedOn = parseDate(issued)
	rec.ExpiresOn = parseDate(expires)
	rec.SubmittedAt = parseTime(submittedAt)
	rec.ValidatedAt = parseTime(validatedAt)
	rec.PrintedAt = parseTime(printedAt)
	rec.ExpiredAt = parseTime(expiredAt)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	if err := s.loadEvents(ctx, &rec); err != nil {
		return records.Record{}, err
	}
	return rec, nil
}

func (s *Store) loadEvents(ctx context.Context, rec *records.Record) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, amount, method, reference, actor
		FROM settlements WHERE record_id = ? ORDER BY seq`, string(rec.ID))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			dateS                    string
			ev                       records.Settlement
			method, reference, actor sql.NullString
		)
		if err := rows.Scan(&dateS, &ev.Amount, &method, &reference, &actor); err != nil {
			return err
		}
		ev.Date, _ = records.ParseDate(dateS)
		ev.Method, ev.Reference, ev.Actor = method.String, reference.String, actor.String
		rec.Settlements = append(rec.Settlements, ev)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	jrows, err := s.db.QueryContext(ctx, `
		SELECT date, reason, documents_json
		FROM justifications WHERE record_id = ? ORDER BY seq`, string(rec.ID))
	if err != nil {
		return err
	}
	defer jrows.Close()
	for jrows.Next() {
		var (
			dateS, reason string
			docsJSON      sql.NullString
			ev            records.Justification
		)
		if err := jrows.Scan(&dateS, &reason, &docsJSON); err != nil {
			return err
		}
		ev.Date, _ = records.ParseDate(dateS)
		ev.Reason = reason
		if docsJSON.Valid && docsJSON.String != "" {
			_ = json.Unmarshal([]byte(docsJSON.String), &ev.Documents)
		}
		rec.Justifications = append(rec.Justifications, ev)
	}
	if err := jrows.Err(); err != nil {
		return err
	}

	nrows, err := s.db.QueryContext(ctx, `
		SELECT channel, at, recipient, message, outcome
		FROM notifications WHERE record_id = ? ORDER BY seq`, string(rec.ID))
	if err != nil {
		return err
	}
	defer nrows.Close()
	for nrows.Next() {
		var (
			channel, at, outcome string
			recipient, message   sql.NullString
			ev                   records.Notification
		)
		if err := nrows.Scan(&channel, &at, &recipient, &message, &outcome); err != nil {
			return err
		}
		ev.Channel = records.Channel(channel)
		ev.At, _ = time.Parse(time.RFC3339, at)
		ev.Recipient, ev.Message = recipient.String, message.String
		ev.Outcome = records.Outcome(outcome)
		rec.Notifications = append(rec.Notifications, ev)
	}
	return nrows.Err()
}

func eventCounts(ctx context.Context, tx *sql.Tx, id records.RecordID) (int, int, int, error) {
	var nSettle, nJustify, nNotify int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settlements WHERE record_id = ?`, string(id)).Scan(&nSettle); err != nil {
		return 0, 0, 0, err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM justifications WHERE record_id = ?`, string(id)).Scan(&nJustify); err != nil {
		return 0, 0, 0, err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE record_id = ?`, string(id)).Scan(&nNotify); err != nil {
		return 0, 0, 0, err
	}
	return nSettle, nJustify, nNotify, nil
}

func appendEvents(ctx context.Context, tx *sql.Tx, rec records.Record, fromSettle, fromJustify, fromNotify int) error {
	for i := fromSettle; i < len(rec.Settlements); i++ {
		ev := rec.Settlements[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settlements (record_id, seq, date, amount, method, reference, actor)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(rec.ID), i, ev.Date.String(), ev.Amount, ev.Method, ev.Reference, ev.Actor); err != nil {
			return fmt.Errorf("insert settlement: %w", err)
		}
	}
	for i := fromJustify; i < len(rec.Justifications); i++ {
		ev := rec.Justifications[i]
		docs, _ := json.Marshal(ev.Documents)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO justifications (record_id, seq, date, reason, documents_json)
			VALUES (?, ?, ?, ?, ?)`,
			string(rec.ID), i, ev.Date.String(), ev.Reason, string(docs)); err != nil {
			return fmt.Errorf("insert justification: %w", err)
		}
	}
	for i := fromNotify; i < len(rec.Notifications); i++ {
		ev := rec.Notifications[i]
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO notifications (record_id, seq, channel, at, recipient, message, outcome)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(rec.ID), i, string(ev.Channel), ev.At.UTC().Format(time.RFC3339),
			ev.Recipient, ev.Message, string(ev.Outcome)); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dateText(d records.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func parseDate(s sql.NullString) records.Date {
	if !s.Valid || s.String == "" {
		return records.Date{}
	}
	d, _ := records.ParseDate(s.String)
	return d
}

func timeText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func sortByEventDate(recs []records.Record) {
	sort.Slice(recs, func(i, j int) bool {
		di, dj := recs[i].EventDate(), recs[j].EventDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return recs[i].ID < recs[j].ID
	})
}
