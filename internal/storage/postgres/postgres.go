// Package postgres implements the storage.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"historyview/internal/history"
	"historyview/internal/models"
	"historyview/internal/storage"
)

//go:embed schema.sql
var schema string

// Store implements storage.Store on the event_history and
// notification_recipient tables.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Compile-time check that Store implements storage.Store.
var _ storage.Store = (*Store)(nil)

// New opens a connection pool to the database at databaseURL.
func New(databaseURL string, maxOpenConns int, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return NewWithDB(db, log), nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the history tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const selectEvent = `SELECT id, event_time, event_type, object_type,
	host_name, host_display_name, host_checkcommand,
	service_name, service_display_name, service_checkcommand, payload
FROM event_history`

// filterClause binds Query.ObjectType, Query.Host and Query.EventType to $1,
// $2 and $3.
const filterClause = `($1 = '' OR object_type = $1) AND ($2 = '' OR lower(host_name) = lower($2))
AND ($3 = '' OR event_type = $3)`

func window(q storage.Query) (sql.NullInt64, int) {
	var limit sql.NullInt64
	if q.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(q.Limit), Valid: true}
	}
	return limit, max(q.Offset, 0)
}

// History streams matching records in timeline order. The returned source
// holds a database cursor until it is drained or closed.
func (s *Store) History(ctx context.Context, q storage.Query) (history.Source, error) {
	limit, offset := window(q)
	rows, err := s.db.QueryContext(ctx, selectEvent+`
WHERE `+filterClause+`
ORDER BY event_time DESC, id DESC
LIMIT $4 OFFSET $5`, string(q.ObjectType), q.Host, string(q.EventType), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return &rowSource{rows: rows, log: s.log}, nil
}

// Event loads a single record.
func (s *Store) Event(ctx context.Context, id models.EventID) (*models.EventRecord, error) {
	row := s.db.QueryRowContext(ctx, selectEvent+` WHERE id = $1`, []byte(id))
	rec, err := scanEvent(row, s.log)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrEventNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// NotifiedUsers fetches one row beyond limit to tell whether more exist.
func (s *Store) NotifiedUsers(ctx context.Context, id models.EventID, limit int) (models.RecipientPage, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_history WHERE id = $1)`, []byte(id)).Scan(&exists); err != nil {
		return models.RecipientPage{}, fmt.Errorf("look up notification: %w", err)
	}
	if !exists {
		return models.RecipientPage{}, fmt.Errorf("%w: %s", storage.ErrEventNotFound, id)
	}

	var peek sql.NullInt64
	if limit > 0 {
		peek = sql.NullInt64{Int64: int64(limit) + 1, Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT user_name, user_display_name, user_email
FROM notification_recipient
WHERE notification_id = $1
ORDER BY position, user_name
LIMIT $2`, []byte(id), peek)
	if err != nil {
		return models.RecipientPage{}, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	page := models.RecipientPage{Users: []models.User{}}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Name, &u.DisplayName, &u.Email); err != nil {
			return models.RecipientPage{}, fmt.Errorf("scan recipient: %w", err)
		}
		page.Users = append(page.Users, u)
	}
	if err := rows.Err(); err != nil {
		return models.RecipientPage{}, fmt.Errorf("iterate recipients: %w", err)
	}
	if limit > 0 && len(page.Users) > limit {
		page.Users = page.Users[:limit]
		page.HasMore = true
	}
	return page, nil
}

// Notifications counts the matches, then reads the window ordered by the
// payload's send time.
func (s *Store) Notifications(ctx context.Context, q storage.Query) (storage.NotificationList, error) {
	typ := string(models.EventNotification)

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM event_history WHERE `+filterClause,
		string(q.ObjectType), q.Host, typ).Scan(&total); err != nil {
		return storage.NotificationList{}, fmt.Errorf("count notifications: %w", err)
	}

	limit, offset := window(q)
	rows, err := s.db.QueryContext(ctx, selectEvent+`
WHERE `+filterClause+`
ORDER BY COALESCE((payload->>'send_time')::timestamptz, event_time) DESC, event_time DESC, id DESC
LIMIT $4 OFFSET $5`, string(q.ObjectType), q.Host, typ, limit, offset)
	if err != nil {
		return storage.NotificationList{}, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	list := storage.NotificationList{Records: []*models.EventRecord{}, Total: total}
	for rows.Next() {
		rec, err := scanEvent(rows, s.log)
		if err != nil {
			return storage.NotificationList{}, err
		}
		list.Records = append(list.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return storage.NotificationList{}, fmt.Errorf("iterate notifications: %w", err)
	}
	return list, nil
}

// Import writes an export into the database in one transaction. Existing
// records with the same id are replaced.
func (s *Store) Import(ctx context.Context, export storage.Export) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, rec := range export.Events {
		if err := insertEvent(ctx, tx, rec); err != nil {
			return err
		}
	}
	for hexID, users := range export.Recipients {
		id, err := models.ParseEventID(hexID)
		if err != nil {
			return fmt.Errorf("recipient key %q: %w", hexID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notification_recipient WHERE notification_id = $1`, []byte(id)); err != nil {
			return fmt.Errorf("clear recipients of %s: %w", id, err)
		}
		for pos, u := range users {
			if _, err := tx.ExecContext(ctx, `INSERT INTO notification_recipient
(notification_id, position, user_name, user_display_name, user_email)
VALUES ($1, $2, $3, $4, $5)`, []byte(id), pos, u.Name, u.DisplayName, u.Email); err != nil {
				return fmt.Errorf("insert recipient %s of %s: %w", u.Name, id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, rec *models.EventRecord) error {
	payload, err := encodePayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode payload of %s: %w", rec.ID, err)
	}

	var host models.Host
	if rec.Host != nil {
		host = *rec.Host
	}
	var svcName, svcDisplay, svcCommand sql.NullString
	if rec.Service != nil {
		svcName = nullString(rec.Service.Name)
		svcDisplay = nullString(rec.Service.DisplayName)
		svcCommand = nullString(rec.Service.CheckCommand)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO event_history
(id, event_time, event_type, object_type, host_name, host_display_name, host_checkcommand,
 service_name, service_display_name, service_checkcommand, payload)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
 event_time = EXCLUDED.event_time, event_type = EXCLUDED.event_type,
 object_type = EXCLUDED.object_type, host_name = EXCLUDED.host_name,
 host_display_name = EXCLUDED.host_display_name, host_checkcommand = EXCLUDED.host_checkcommand,
 service_name = EXCLUDED.service_name, service_display_name = EXCLUDED.service_display_name,
 service_checkcommand = EXCLUDED.service_checkcommand, payload = EXCLUDED.payload`,
		[]byte(rec.ID), rec.EventTime, string(rec.EventType), string(rec.ObjectType),
		host.Name, host.DisplayName, host.CheckCommand,
		svcName, svcDisplay, svcCommand, payload)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", rec.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanEvent builds a record from one row. Payloads that fail to decode are
// dropped with a warning so the record surfaces as an integrity error when
// rendered instead of failing the whole listing.
func scanEvent(row scanner, log zerolog.Logger) (*models.EventRecord, error) {
	var (
		id                              []byte
		eventTime                       time.Time
		eventType, objectType           string
		host                            models.Host
		svcName, svcDisplay, svcCommand sql.NullString
		payload                         []byte
	)
	if err := row.Scan(&id, &eventTime, &eventType, &objectType,
		&host.Name, &host.DisplayName, &host.CheckCommand,
		&svcName, &svcDisplay, &svcCommand, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}

	rec := &models.EventRecord{
		ID:         models.EventID(id),
		EventTime:  eventTime,
		EventType:  models.EventType(eventType),
		ObjectType: models.ObjectType(objectType),
		Host:       &host,
	}
	if svcName.Valid {
		rec.Service = &models.Service{
			Name:         svcName.String,
			DisplayName:  svcDisplay.String,
			CheckCommand: svcCommand.String,
		}
	}
	if len(payload) > 0 && string(payload) != "null" && rec.EventType.IsValid() {
		p, err := models.DecodePayload(rec.EventType, payload)
		if err != nil {
			log.Warn().Err(err).Str("event", rec.ID.String()).Msg("undecodable payload")
		} else {
			rec.Payload = p
		}
	}
	return rec, nil
}

// rowSource adapts a result set to history.Source.
type rowSource struct {
	rows   *sql.Rows
	log    zerolog.Logger
	closed bool
}

func (r *rowSource) Next(ctx context.Context) (*models.EventRecord, error) {
	if r.closed {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	if !r.rows.Next() {
		err := r.rows.Err()
		_ = r.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate history: %w", err)
		}
		return nil, io.EOF
	}
	rec, err := scanEvent(r.rows, r.log)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return rec, nil
}

// Close releases the cursor.
func (r *rowSource) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.rows.Close()
}

// encodePayload returns the payload as JSON text; lib/pq would send a byte
// slice as bytea, which JSONB columns reject.
func encodePayload(p models.Payload) (sql.NullString, error) {
	if p == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}
