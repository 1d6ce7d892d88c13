package workers

import (
	"context"
	"time"

	"github.com/striderun/strider/internal/db"
	"github.com/striderun/strider/internal/logging"
)

// SessionPruner periodically removes stored sessions older than the
// retention window.
type SessionPruner struct {
	queries   *db.Queries
	interval  time.Duration
	retention time.Duration
}

// NewSessionPruner creates a new session pruning worker
func NewSessionPruner(queries *db.Queries, interval, retention time.Duration) *SessionPruner {
	return &SessionPruner{
		queries:   queries,
		interval:  interval,
		retention: retention,
	}
}

// Run starts the session pruning worker
func (p *SessionPruner) Run(ctx context.Context) {
	log := logging.Logger
	log.Info().
		Dur("interval", p.interval).
		Dur("retention", p.retention).
		Msg("session pruner started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Do an initial prune
	p.pruneOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session pruner stopped")
			return
		case <-ticker.C:
			p.pruneOnce(ctx)
		}
	}
}

func (p *SessionPruner) pruneOnce(ctx context.Context) {
	log := logging.Logger

	cutoff := time.Now().UTC().Add(-p.retention)
	deleted, err := p.queries.DeleteSessionsBefore(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune sessions")
		return
	}

	if deleted > 0 {
		log.Info().
			Int64("deleted", deleted).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("pruned expired sessions")
	} else {
		log.Debug().Msg("no sessions to prune")
	}
}

// LogDatabaseStats logs current database statistics
func LogDatabaseStats(ctx context.Context, queries *db.Queries) {
	log := logging.Logger

	count, err := queries.CountSessions(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count sessions")
		return
	}

	if count == 0 {
		log.Info().Int64("total_sessions", 0).Msg("database statistics")
		return
	}

	oldest := "unknown"
	if ts, ok, err := queries.OldestSessionTime(ctx); err == nil && ok {
		oldest = ts.Format(time.RFC3339)
	}

	log.Info().
		Int64("total_sessions", count).
		Str("oldest_session", oldest).
		Msg("database statistics")
}
