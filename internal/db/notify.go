package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ccodesido/zentiumassist-all/pkg"
	"github.com/lib/pq"
)

// Notifier publishes crisis alerts with PostgreSQL NOTIFY so a dashboard
// process can LISTEN on the channel.  The payload is the alert as JSON.
type Notifier struct {
	DB      *sql.DB
	Channel string
}

// NewNotifier constructs a new Notifier.  The channel comes from
// CRISIS_NOTIFY_CHANNEL.
func NewNotifier(db *sql.DB, channel string) *Notifier {
	return &Notifier{DB: db, Channel: channel}
}

// CrisisAlert sends the alert on the configured channel.
func (n *Notifier) CrisisAlert(ctx context.Context, alert pkg.CrisisAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}
	// NOTIFY takes no bind parameters, pg_notify does.
	if _, err := n.DB.ExecContext(ctx, "SELECT pg_notify($1, $2)", n.Channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", pq.QuoteIdentifier(n.Channel), err)
	}
	return nil
}
