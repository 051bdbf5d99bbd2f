package stellar

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/fundlift/custody/internal/client"
	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
)

const (
	watchPageLimit = 100

	// pollRoundsPerReconnect: how many polling rounds to run after a
	// stream disconnect before attempting to stream again.
	pollRoundsPerReconnect = 4
)

// Watcher consumes inbound payments to the central collection account:
// donations sent directly to the platform, not originated by this
// service. It prefers the network's event stream and falls back to cursor
// polling when the stream breaks, reconnecting from the last saved cursor.
//
// The cursor is persisted after each processed event and every payment is
// deduplicated by paging token, so a crash-and-resume never
// double-processes an event.
type Watcher struct {
	horizon  client.Horizon
	store    *store.Store
	account  string
	interval time.Duration
	log      zerolog.Logger
}

// NewWatcher creates a watcher for the given collection account.
func NewWatcher(hz client.Horizon, st *store.Store, account string, interval time.Duration, lg zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		horizon:  hz,
		store:    st,
		account:  account,
		interval: interval,
		log:      lg,
	}
}

// Run blocks until ctx is cancelled. Stream disconnects are tolerated
// indefinitely: the watcher polls for a few rounds, then reconnects the
// stream from the persisted cursor.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info().Str("account", w.account).Msg("payment watcher started")

	for {
		cursor, err := w.store.Cursor(w.account)
		if err != nil {
			// The store may be briefly unhappy; the watcher outlives it.
			w.log.Error().Err(err).Msg("failed to read cursor, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.interval):
			}
			continue
		}

		err = w.horizon.StreamPayments(ctx, w.account, cursor, w.handle)
		if ctx.Err() != nil {
			w.flush()
			return ctx.Err()
		}
		w.log.Warn().Err(err).Msg("payment stream disconnected, falling back to polling")

		for round := 0; round < pollRoundsPerReconnect; round++ {
			select {
			case <-ctx.Done():
				w.flush()
				return ctx.Err()
			case <-time.After(w.interval):
			}
			if _, err := w.PollOnce(ctx); err != nil {
				w.log.Warn().Err(err).Msg("payment poll failed")
			}
		}
	}
}

// PollOnce fetches one page of payments after the persisted cursor and
// processes them. Returns how many new payments were recorded.
func (w *Watcher) PollOnce(ctx context.Context) (int, error) {
	cursor, err := w.store.Cursor(w.account)
	if err != nil {
		return 0, err
	}

	payments, err := w.horizon.Payments(ctx, w.account, cursor, watchPageLimit)
	if err != nil {
		return 0, err
	}

	recorded := 0
	for _, p := range payments {
		if w.handlePayment(p) {
			recorded++
		}
	}
	return recorded, nil
}

func (w *Watcher) handle(p model.Payment) {
	w.handlePayment(p)
}

// handlePayment processes one event and advances the cursor past it.
// Reports whether the payment was new and inbound.
func (w *Watcher) handlePayment(p model.Payment) bool {
	recorded := false
	// Only unsolicited inbound transfers count: sent to the central
	// account by someone other than ourselves.
	if p.To == w.account && p.From != w.account {
		isNew, err := w.store.RecordPayment(p)
		if err != nil {
			w.log.Error().Err(err).Str("paging_token", p.PagingToken).
				Msg("failed to record payment")
			// Leave the cursor where it is; the event will be
			// reprocessed on the next round.
			return false
		}
		if isNew {
			recorded = true
			w.log.Info().
				Str("from", p.From).
				Str("amount", p.Amount).
				Str("asset_type", p.AssetType).
				Str("tx_hash", p.TransactionHash).
				Msg("inbound donation recorded")
		}
	}

	if err := w.store.SetCursor(w.account, p.PagingToken); err != nil {
		w.log.Error().Err(err).Msg("failed to persist cursor")
	}
	return recorded
}

func (w *Watcher) flush() {
	cursor, err := w.store.Cursor(w.account)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to read final cursor")
		return
	}
	w.log.Info().Str("cursor", cursor).Msg("payment watcher stopped")
}
