package stellar

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
)

const central = "GCENTRAL"

func newTestWatcher(t *testing.T, hz *stubHorizon) (*Watcher, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewWatcher(hz, st, central, time.Millisecond, zerolog.Nop()), st
}

func inbound(token, from, amount string) model.Payment {
	return model.Payment{
		ID:          "op-" + token,
		PagingToken: token,
		From:        from,
		To:          central,
		Amount:      amount,
		AssetType:   "native",
		ReceivedAt:  time.Now().UTC(),
	}
}

func TestPollOnce(t *testing.T) {
	require := require.New(t)

	hz := &stubHorizon{
		payments: []model.Payment{
			inbound("100-1", "GDONOR1", "25.0000000"),
			// Outbound: central is the sender, not a donation.
			{PagingToken: "101-1", From: central, To: "GELSEWHERE", Amount: "5.0000000"},
			// Self transfer.
			{PagingToken: "102-1", From: central, To: central, Amount: "1.0000000"},
			inbound("103-1", "GDONOR2", "50.0000000"),
		},
	}
	w, st := newTestWatcher(t, hz)

	recorded, err := w.PollOnce(context.Background())
	require.NoError(err)
	require.Equal(2, recorded)

	payments, err := st.Payments(0)
	require.NoError(err)
	require.Len(payments, 2)
	require.Equal("GDONOR1", payments[0].From)
	require.Equal("GDONOR2", payments[1].From)

	// The cursor advances past every event, including filtered ones.
	cursor, err := st.Cursor(central)
	require.NoError(err)
	require.Equal("103-1", cursor)

	// Nothing new: the cursor excludes everything already seen.
	recorded, err = w.PollOnce(context.Background())
	require.NoError(err)
	require.Zero(recorded)
}

func TestPollOnceResumesFromCursor(t *testing.T) {
	require := require.New(t)

	hz := &stubHorizon{
		payments: []model.Payment{
			inbound("100-1", "GDONOR1", "25.0000000"),
			inbound("200-1", "GDONOR2", "50.0000000"),
		},
	}
	w, st := newTestWatcher(t, hz)
	require.NoError(st.SetCursor(central, "150-0"))

	recorded, err := w.PollOnce(context.Background())
	require.NoError(err)
	require.Equal(1, recorded)

	payments, err := st.Payments(0)
	require.NoError(err)
	require.Len(payments, 1)
	require.Equal("GDONOR2", payments[0].From)
}

func TestPollOnceDedupesReplayedEvents(t *testing.T) {
	require := require.New(t)

	hz := &stubHorizon{payments: []model.Payment{inbound("100-1", "GDONOR1", "25.0000000")}}
	w, st := newTestWatcher(t, hz)

	recorded, err := w.PollOnce(context.Background())
	require.NoError(err)
	require.Equal(1, recorded)

	// A crash before the cursor write replays the event; the paging-token
	// dedupe keeps the cache correct.
	require.NoError(st.SetCursor(central, ""))
	recorded, err = w.PollOnce(context.Background())
	require.NoError(err)
	require.Zero(recorded)

	payments, err := st.Payments(0)
	require.NoError(err)
	require.Len(payments, 1)
}

func TestRunSurvivesCursorReadFailure(t *testing.T) {
	require := require.New(t)

	hz := &stubHorizon{}
	w, st := newTestWatcher(t, hz)

	// Every cursor read fails from here on; the watcher must keep
	// retrying rather than die.
	require.NoError(st.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}
}

func TestRunStreamsThenStops(t *testing.T) {
	require := require.New(t)

	hz := &stubHorizon{
		streamEvents: []model.Payment{
			inbound("100-1", "GDONOR1", "25.0000000"),
			inbound("101-1", "GDONOR2", "10.0000000"),
		},
	}
	w, st := newTestWatcher(t, hz)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Wait for both streamed events to land, then stop the watcher.
	require.Eventually(func() bool {
		payments, err := st.Payments(0)
		return err == nil && len(payments) == 2
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}

	cursor, err := st.Cursor(central)
	require.NoError(err)
	require.Equal("101-1", cursor)
}
