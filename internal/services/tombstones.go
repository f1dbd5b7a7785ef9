package services

import (
	"time"

	"community-service/internal/apperrors"
	"community-service/internal/cache"
)

// Tombstones remembers user ids deleted within the grace window. Reads that race the deletion
// cascade and come back empty are reported as silent errors instead of alarms. A nil
// *Tombstones never suppresses anything.
type Tombstones struct {
	ids *cache.TTL[string, time.Time]
}

func NewTombstones(grace time.Duration) *Tombstones {
	return &Tombstones{ids: cache.NewTTL[string, time.Time](grace)}
}

func (t *Tombstones) Mark(userID string) {
	if t == nil {
		return
	}
	t.ids.Set(userID, time.Now())
}

// Deleted reports whether any of userIDs was deleted within the grace window.
func (t *Tombstones) Deleted(userIDs ...string) bool {
	if t == nil {
		return false
	}
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := t.ids.Get(id); ok {
			return true
		}
	}
	return false
}

// suppress downgrades a not-found on table to a silent error when one of userIDs is
// tombstoned. Any other error is returned unchanged.
func (t *Tombstones) suppress(err error, table string, userIDs ...string) error {
	if err == nil || !t.Deleted(userIDs...) {
		return err
	}
	return apperrors.SuppressAfterDeletion(err, table)
}
