// Package freecode issues and redeems one-time codes that unlock a report
// without payment.
package freecode

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var ErrEmpty = errors.New("no code provided")

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Normalize trims and upper-cases a user-entered code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Generate stores and returns a fresh unused code of 8 uppercase hex chars.
func (s *Store) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		var b [4]byte
		if _, err := rand.Read(b[:]); err != nil {
			return "", err
		}
		code := strings.ToUpper(hex.EncodeToString(b[:]))
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO free_codes (code,used,created_at) VALUES ($1,0,$2) ON CONFLICT (code) DO NOTHING`,
			code, s.now().Unix())
		if err != nil {
			return "", err
		}
		if n, _ := res.RowsAffected(); n == 1 {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a unique free code")
}

// Redeem consumes code on behalf of sessionID. It reports false for unknown
// or already-used codes; a code can be redeemed exactly once.
func (s *Store) Redeem(ctx context.Context, code, sessionID string) (bool, error) {
	code = Normalize(code)
	if code == "" {
		return false, ErrEmpty
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE free_codes SET used=1, used_at=$1, used_by=$2 WHERE code=$3 AND used=0`,
		s.now().Unix(), sessionID, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

type Entry struct {
	Code      string `json:"code"`
	Used      bool   `json:"used"`
	CreatedAt int64  `json:"created_at"`
}

func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code,used,created_at FROM free_codes ORDER BY created_at DESC, code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		var used int
		if err := rows.Scan(&e.Code, &used, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Used = used != 0
		out = append(out, e)
	}
	return out, rows.Err()
}
