package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/errors"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/feedback"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store is the SQLite implementation of the feedback persistence boundary.
type Store struct {
	db       *sql.DB
	readOnly bool
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// ReadOnly opens the database without write access.
func ReadOnly() Option {
	return func(s *Store) { s.readOnly = true }
}

// WithLogger sets the store logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger.With().Str("component", "store").Logger() }
}

// WithClock overrides the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens the database at path with WAL, creating it and its schema
// unless opened read-only.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{now: time.Now, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	var dsn string
	switch {
	case path == ":memory:":
		dsn = path
	case s.readOnly:
		dsn = fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if !s.readOnly {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	s.db = db
	s.logger.Debug().Str("path", path).Bool("read_only", s.readOnly).Msg("database opened")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SubmitFeedback inserts a new top-level comment or reply and returns the
// stored record.
func (s *Store) SubmitFeedback(ctx context.Context, in feedback.Input) (feedback.Item, error) {
	if s.readOnly {
		return feedback.Item{}, readOnlyErr("submit feedback")
	}
	d, err := feedback.Draft{
		Kind:     in.Kind,
		Content:  in.Content,
		AudioRef: in.AudioRef,
		AudioURL: in.AudioURL,
		Position: in.Position,
		ParentID: in.ParentID,
		Author:   in.Author,
	}.Normalize()
	if err != nil {
		return feedback.Item{}, err
	}
	if strings.TrimSpace(d.Author.DisplayName) == "" && strings.TrimSpace(d.Author.Contact) == "" {
		return feedback.Item{}, errors.New(nil).
			Component("store").
			Category(errors.CategoryValidation).
			Context("error", "author is required").
			Build()
	}

	if d.ParentID != "" {
		if err := s.checkParent(ctx, d.ParentID, in.Artwork); err != nil {
			return feedback.Item{}, err
		}
	}

	item := feedback.Item{
		ID:        uuid.NewString(),
		Kind:      d.Kind,
		Content:   d.Content,
		AudioRef:  d.AudioRef,
		AudioURL:  d.AudioURL,
		Position:  d.Position,
		Status:    feedback.StatusOpen,
		Author:    d.Author,
		CreatedAt: s.now(),
		Artwork:   in.Artwork,
		ParentID:  d.ParentID,
	}
	ts := unixFromTime(item.CreatedAt)

	var posX, posY sql.NullFloat64
	if item.Position != nil {
		posX = sql.NullFloat64{Float64: item.Position.X, Valid: true}
		posY = sql.NullFloat64{Float64: item.Position.Y, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, artworkId, artworkVersion, parentId, kind, content, audioRef, audioUrl,
			posX, posY, status, authorName, authorContact, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Artwork.ArtworkID, item.Artwork.Version, nullString(item.ParentID),
		string(item.Kind), item.Content, nullString(item.AudioRef), nullString(item.AudioURL),
		posX, posY, string(item.Status), item.Author.DisplayName, nullString(item.Author.Contact), ts, ts)
	if err != nil {
		return feedback.Item{}, dbErr(err, "insert feedback")
	}

	// Round-trip the timestamp through its stored form.
	item.CreatedAt = timeFromUnix(ts)
	s.logger.Debug().Str("id", item.ID).Str("kind", string(item.Kind)).Msg("feedback stored")
	return item, nil
}

func (s *Store) checkParent(ctx context.Context, parentID string, artwork feedback.ArtworkRef) error {
	var grand sql.NullString
	var artworkID string
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT parentId, artworkId, artworkVersion FROM feedback WHERE id = ?`, parentID,
	).Scan(&grand, &artworkID, &version)
	if err == sql.ErrNoRows {
		return notFound("parent feedback not found", parentID)
	}
	if err != nil {
		return dbErr(err, "lookup parent")
	}
	if grand.Valid {
		return errors.New(nil).
			Component("store").
			Category(errors.CategoryValidation).
			Context("parent_id", parentID).
			Context("error", "replies cannot be nested").
			Build()
	}
	if artworkID != artwork.ArtworkID || version != artwork.Version {
		return errors.New(nil).
			Component("store").
			Category(errors.CategoryValidation).
			Context("parent_id", parentID).
			Context("error", "reply artwork does not match its parent").
			Build()
	}
	return nil
}

// SetStatus sets the status of a feedback item. The last write wins.
func (s *Store) SetStatus(ctx context.Context, id string, status feedback.Status) error {
	if s.readOnly {
		return readOnlyErr("set status")
	}
	if status != feedback.StatusOpen && status != feedback.StatusResolved {
		return errors.New(nil).
			Component("store").
			Category(errors.CategoryValidation).
			Context("status", string(status)).
			Context("error", "unknown status").
			Build()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE feedback SET status = ?, updatedAt = ? WHERE id = ?`,
		string(status), unixFromTime(s.now()), id)
	if err != nil {
		return dbErr(err, "update status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbErr(err, "update status")
	}
	if n == 0 {
		return notFound("feedback not found", id)
	}
	return nil
}

// AttachTranscript stores a transcript on the AUDIO item carrying assetRef
// unless it already has content. It reports whether a row was updated.
func (s *Store) AttachTranscript(ctx context.Context, assetRef, text string) (bool, error) {
	if s.readOnly {
		return false, readOnlyErr("attach transcript")
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE feedback SET content = ?, updatedAt = ?
		WHERE kind = 'AUDIO' AND audioRef = ? AND content = ''
	`, strings.TrimSpace(text), unixFromTime(s.now()), assetRef)
	if err != nil {
		return false, dbErr(err, "attach transcript")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, dbErr(err, "attach transcript")
	}
	return n > 0, nil
}

// ListFeedback returns the top-level feedback for one artwork version,
// oldest first.
func (s *Store) ListFeedback(ctx context.Context, artwork feedback.ArtworkRef) ([]feedback.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+columns+`
		FROM feedback
		WHERE artworkId = ? AND artworkVersion = ? AND parentId IS NULL
		ORDER BY createdAt ASC, rowid ASC
	`, artwork.ArtworkID, artwork.Version)
	if err != nil {
		return nil, dbErr(err, "query feedback")
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListReplies returns the replies under parentID, oldest first.
func (s *Store) ListReplies(ctx context.Context, parentID string) ([]feedback.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+columns+`
		FROM feedback
		WHERE parentId = ?
		ORDER BY createdAt ASC, rowid ASC
	`, parentID)
	if err != nil {
		return nil, dbErr(err, "query replies")
	}
	defer rows.Close()
	return scanItems(rows)
}

// Get returns a single item by id.
func (s *Store) Get(ctx context.Context, id string) (feedback.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM feedback WHERE id = ?`, id)
	if err != nil {
		return feedback.Item{}, dbErr(err, "query feedback")
	}
	defer rows.Close()
	items, err := scanItems(rows)
	if err != nil {
		return feedback.Item{}, err
	}
	if len(items) == 0 {
		return feedback.Item{}, notFound("feedback not found", id)
	}
	return items[0], nil
}

func scanItems(rows *sql.Rows) ([]feedback.Item, error) {
	var items []feedback.Item
	for rows.Next() {
		var it feedback.Item
		var kind, status string
		var parentID, audioRef, audioURL, contact sql.NullString
		var posX, posY sql.NullFloat64
		var createdAt float64
		if err := rows.Scan(&it.ID, &it.Artwork.ArtworkID, &it.Artwork.Version, &parentID,
			&kind, &it.Content, &audioRef, &audioURL, &posX, &posY, &status,
			&it.Author.DisplayName, &contact, &createdAt); err != nil {
			return nil, dbErr(err, "scan feedback")
		}
		it.Kind = feedback.Kind(kind)
		it.Status = feedback.Status(status)
		it.ParentID = parentID.String
		it.AudioRef = audioRef.String
		it.AudioURL = audioURL.String
		it.Author.Contact = contact.String
		if posX.Valid && posY.Valid {
			p := feedback.NewPosition(posX.Float64, posY.Float64)
			it.Position = &p
		}
		it.CreatedAt = timeFromUnix(createdAt)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "iterate feedback")
	}
	return items, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func dbErr(err error, op string) error {
	return errors.New(err).
		Component("store").
		Category(errors.CategoryDatabase).
		Context("operation", op).
		Build()
}

func notFound(msg, id string) error {
	return errors.New(nil).
		Component("store").
		Category(errors.CategoryNotFound).
		Context("id", id).
		Context("error", msg).
		Build()
}

func readOnlyErr(op string) error {
	return errors.New(nil).
		Component("store").
		Category(errors.CategoryReadOnly).
		Context("operation", op).
		Context("error", "database opened read-only").
		Build()
}
