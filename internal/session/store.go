package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session is the server-side record behind the browser's session cookie.
// LatestCode is authoritative once the quiz has been submitted.
type Session struct {
	ID                string    `json:"id"`
	LatestCode        string    `json:"latest_code,omitempty"`
	Paid              bool      `json:"paid"`
	CheckoutSessionID string    `json:"-"`
	CheckoutToken     string    `json:"-"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Store interface {
	Create(ctx context.Context) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	SetLatestCode(ctx context.Context, id, code string) error
	MarkPaid(ctx context.Context, id string) error
	SetCheckout(ctx context.Context, id, checkoutSessionID, token string) error
	ClearCheckoutToken(ctx context.Context, id string) error
}

type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

func (s *SQLStore) Create(ctx context.Context) (Session, error) {
	now := s.now()
	sess := Session{ID: uuid.NewString(), UpdatedAt: time.Unix(now.Unix(), 0)}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id,created_at,updated_at) VALUES ($1,$2,$3)`,
		sess.ID, now.Unix(), now.Unix())
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,latest_code,paid,checkout_session_id,checkout_token,updated_at FROM sessions WHERE id=$1`, id)
	var sess Session
	var paid int
	var updated int64
	if err := row.Scan(&sess.ID, &sess.LatestCode, &paid, &sess.CheckoutSessionID, &sess.CheckoutToken, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	sess.Paid = paid != 0
	sess.UpdatedAt = time.Unix(updated, 0)
	return sess, nil
}

func (s *SQLStore) SetLatestCode(ctx context.Context, id, code string) error {
	if code == "" {
		return errors.New("empty code")
	}
	return s.update(ctx, `UPDATE sessions SET latest_code=$1, updated_at=$2 WHERE id=$3`, code, s.now().Unix(), id)
}

func (s *SQLStore) MarkPaid(ctx context.Context, id string) error {
	return s.update(ctx, `UPDATE sessions SET paid=1, updated_at=$1 WHERE id=$2`, s.now().Unix(), id)
}

func (s *SQLStore) SetCheckout(ctx context.Context, id, checkoutSessionID, token string) error {
	return s.update(ctx, `UPDATE sessions SET checkout_session_id=$1, checkout_token=$2, updated_at=$3 WHERE id=$4`,
		checkoutSessionID, token, s.now().Unix(), id)
}

// ClearCheckoutToken burns the one-time confirmation token. The checkout id
// stays so later verifications can match it to this session.
func (s *SQLStore) ClearCheckoutToken(ctx context.Context, id string) error {
	return s.update(ctx, `UPDATE sessions SET checkout_token='', updated_at=$1 WHERE id=$2`,
		s.now().Unix(), id)
}

func (s *SQLStore) update(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
