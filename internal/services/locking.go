package services

import (
	"context"
	"time"

	"fundledger/internal/config"
	apperrors "fundledger/internal/errors"
	"fundledger/internal/keylock"
	"fundledger/internal/models"
)

// KeyLocks is the mutex set shared by every service that touches the ledger.
// All of them must be constructed with the same instance, otherwise two
// services could interleave on one security key.
type KeyLocks = keylock.KeyedMutex[models.SecurityKey]

// NewKeyLocks creates the shared per-security-key mutex set.
func NewKeyLocks() *KeyLocks {
	return keylock.New[models.SecurityKey]()
}

// acquireKeyLock takes the security key's lock, bounding the wait by the
// caller's deadline or, absent one, by the configured default. It returns a
// release func on success and ErrConcurrencyTimeout when the wait runs out.
func acquireKeyLock(ctx context.Context, locks *KeyLocks, key models.SecurityKey) (func(), error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Get().LockTimeout)
		defer cancel()
	}

	if err := locks.Acquire(ctx, key); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConcurrencyTimeout, err)
	}
	return func() { locks.Release(key) }, nil
}

// dateOnly truncates a timestamp to its calendar date in UTC. Ledger ordering
// and corporate-action cutoffs compare calendar dates, never times of day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
