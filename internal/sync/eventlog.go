package syncx

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

const (
	TypeCodeSubmitted    = "CodeSubmitted"
	TypeFreeCodeRedeemed = "FreeCodeRedeemed"
	TypePaymentVerified  = "PaymentVerified"
	TypeGateDecision     = "GateDecision"
)

type Event struct {
	Seq       int64
	SiteID    string
	Type      string
	Ref       string // session id
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct {
	db     *sql.DB
	siteID string
}

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db, siteID: "local"} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	site := e.SiteID
	if site == "" {
		site = r.siteID
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, ref, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		site, e.Type, e.Ref, e.DataJSON, time.Now().Unix())
	return err
}

// Record marshals data and appends it under typ.
func (r *EventRepo) Record(ctx context.Context, typ, ref string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.Append(ctx, Event{Type: typ, Ref: ref, DataJSON: string(b)})
}

// ListByRef returns events for ref, oldest first.
func (r *EventRepo) ListByRef(ctx context.Context, ref string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, ref, data, created_at FROM event_log WHERE ref=$1 ORDER BY seq`, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Ref, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
