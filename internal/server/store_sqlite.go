package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/forkreel/forkreel/internal/guide"
	"github.com/forkreel/forkreel/internal/session"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) CreateSession(ctx context.Context) (*session.State, string, error) {
	var id, token string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sessions DEFAULT VALUES
		RETURNING id, token
	`).Scan(&id, &token)
	if err != nil {
		return nil, "", fmt.Errorf("creating session: %w", err)
	}
	return session.New(id), token, nil
}

func (s *SQLiteStore) SessionFromToken(ctx context.Context, token string) (*session.State, error) {
	var (
		st      session.State
		pattern sql.NullString
		quest   sql.NullString
		run     sql.NullString
		slots   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, phase, mode, pattern, quest, run, slots
		FROM sessions
		WHERE token = ? AND ended_at IS NULL
	`, token).Scan(&st.ID, &st.Phase, &st.Mode, &pattern, &quest, &run, &slots)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if err := unmarshalInto(pattern, &st.SelectedPattern); err != nil {
		return nil, fmt.Errorf("decoding session pattern: %w", err)
	}
	if err := unmarshalInto(quest, &st.Quest); err != nil {
		return nil, fmt.Errorf("decoding session quest: %w", err)
	}
	if err := unmarshalInto(run, &st.Run); err != nil {
		return nil, fmt.Errorf("decoding session run: %w", err)
	}
	if err := json.Unmarshal([]byte(slots), &st.Slots); err != nil {
		return nil, fmt.Errorf("decoding session slots: %w", err)
	}
	return &st, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, st *session.State) error {
	pattern, err := marshalNullable(st.SelectedPattern)
	if err != nil {
		return err
	}
	quest, err := marshalNullable(st.Quest)
	if err != nil {
		return err
	}
	run, err := marshalNullable(st.Run)
	if err != nil {
		return err
	}
	slots, err := json.Marshal(st.Slots)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET phase = ?, mode = ?, pattern = ?, quest = ?, run = ?, slots = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, st.Phase, st.Mode, pattern, quest, run, string(slots), st.ID)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) EndSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET ended_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ? AND ended_at IS NULL
	`, sessionID)
	return err
}

func (s *SQLiteStore) GetPattern(ctx context.Context, id string) (guide.PatternResponse, error) {
	var (
		doc      guide.PatternResponse
		evidence sql.NullString
		pack     sql.NullString
		analysis sql.NullString
		kicks    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, tier, category, evidence, director_pack, analysis, shooting_guide
		FROM patterns
		WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Title, &doc.Tier, &doc.Category, &evidence, &pack, &analysis, &kicks)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("loading pattern: %w", err)
	}

	if evidence.Valid {
		doc.Evidence = json.RawMessage(evidence.String)
	}
	if err := unmarshalInto(pack, &doc.DirectorPack); err != nil {
		return doc, fmt.Errorf("decoding director pack: %w", err)
	}
	if err := unmarshalInto(analysis, &doc.Analysis); err != nil {
		return doc, fmt.Errorf("decoding analysis: %w", err)
	}
	if err := unmarshalInto(kicks, &doc.ShootingGuide); err != nil {
		return doc, fmt.Errorf("decoding shooting guide: %w", err)
	}
	return doc, nil
}

func (s *SQLiteStore) ListPatterns(ctx context.Context) ([]PatternSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, tier, category, director_pack IS NOT NULL
		FROM patterns
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}
	defer rows.Close()

	var out []PatternSummary
	for rows.Next() {
		var p PatternSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.Tier, &p.Category, &p.HasPack); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpsertPattern(ctx context.Context, doc guide.PatternResponse) error {
	pack, err := marshalNullable(doc.DirectorPack)
	if err != nil {
		return err
	}
	analysis, err := marshalNullable(doc.Analysis)
	if err != nil {
		return err
	}
	kicks, err := marshalNullable(doc.ShootingGuide)
	if err != nil {
		return err
	}
	var evidence any
	if len(doc.Evidence) > 0 {
		evidence = string(doc.Evidence)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patterns (id, title, tier, category, evidence, director_pack, analysis, shooting_guide)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			tier = excluded.tier,
			category = excluded.category,
			evidence = excluded.evidence,
			director_pack = excluded.director_pack,
			analysis = excluded.analysis,
			shooting_guide = excluded.shooting_guide,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
	`, doc.ID, doc.Title, doc.Tier, doc.Category, evidence, pack, analysis, kicks)
	if err != nil {
		return fmt.Errorf("upserting pattern: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeletePattern(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM patterns WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) LogIntervention(ctx context.Context, sessionID, runID, kind, payload string, elapsedMS int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO interventions (session_id, run_id, kind, payload, elapsed_ms)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, runID, kind, payload, elapsedMS)
	return err
}

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	return id, hash, err
}

func (s *SQLiteStore) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (email, password_hash)
		VALUES (?, ?)
		ON CONFLICT(email) DO NOTHING
	`, email, passwordHash)
	return err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (admin_id)
		VALUES (?)
		RETURNING id
	`, adminID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

// unmarshalInto decodes a nullable JSON column into dst (a **T); NULL leaves
// dst nil.
func unmarshalInto[T any](col sql.NullString, dst **T) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	var v T
	if err := json.Unmarshal([]byte(col.String), &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

// marshalNullable encodes a possibly-nil pointer as a JSON column value.
func marshalNullable[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
