package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Notifier publishes urgency-escalation alerts over a Postgres NOTIFY
// channel. The conversation orchestrator fires it whenever a session
// reaches high urgency so that monitoring clients can react immediately.
type Notifier struct {
	DB      *sql.DB
	Channel string
}

// NewNotifier constructs a new Notifier on the given channel.
func NewNotifier(db *sql.DB, channel string) *Notifier {
	return &Notifier{DB: db, Channel: channel}
}

// Notify sends the session ID as the notification payload.
func (n *Notifier) Notify(ctx context.Context, sessionID string) error {
	_, err := n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, sessionID)
	return err
}

// AlertListener subscribes to the escalation channel. Each call to Listen
// opens its own pq.Listener connection, which keeps subscriptions
// independent of the main connection pool.
type AlertListener struct {
	DSN     string
	Channel string
	Log     zerolog.Logger
}

// NewAlertListener constructs a listener for the given connection string
// and channel.
func NewAlertListener(dsn, channel string, log zerolog.Logger) *AlertListener {
	return &AlertListener{DSN: dsn, Channel: channel, Log: log}
}

// Listen yields session IDs as escalation notifications arrive. The
// returned channel is closed when ctx is cancelled.
func (l *AlertListener) Listen(ctx context.Context) (<-chan string, error) {
	reportErr := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.Log.Warn().Err(err).Str("channel", l.Channel).Msg("alert listener event")
		}
	}
	listener := pq.NewListener(l.DSN, 2*time.Second, time.Minute, reportErr)
	if err := listener.Listen(l.Channel); err != nil {
		listener.Close()
		return nil, err
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case note, ok := <-listener.Notify:
				if !ok {
					return
				}
				// Reconnect events surface as nil notifications.
				if note == nil {
					continue
				}
				select {
				case ch <- note.Extra:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
