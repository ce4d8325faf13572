// pkg/db/sqlite.go
package db

import (
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const defaultBusyTimeout = 5 * time.Second

// sqliteDSN builds a modernc DSN. Pragmas run on every new connection, so each
// session gets foreign keys and the busy timeout regardless of which pooled
// connection it lands on.
func sqliteDSN(cfg Config) string {
	path := cfg.Path
	if path == "" {
		path = "membership.db"
	}
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_time_format", "sqlite")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}
