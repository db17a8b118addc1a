package workers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/solpulse/wallet-monitor/internal/entities"
	"github.com/solpulse/wallet-monitor/internal/observability"
	"github.com/solpulse/wallet-monitor/internal/usecases"
)

const testWallet = "So11111111111111111111111111111111111111112"

type stubFetcher struct {
	mu        sync.Mutex
	envelopes []entities.TransactionEnvelope
	err       error
}

func (f *stubFetcher) Transactions(context.Context, string, int, *string) ([]entities.TransactionEnvelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.envelopes, nil
}

func (f *stubFetcher) setHead(signature string) {
	f.mu.Lock()
	f.envelopes = []entities.TransactionEnvelope{{Signature: signature}}
	f.err = nil
	f.mu.Unlock()
}

type stubNotifier struct {
	mu     sync.Mutex
	events []entities.NotificationEvent
	errors []string
}

func (n *stubNotifier) Broadcast(event entities.NotificationEvent) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *stubNotifier) BroadcastError(message string) {
	n.mu.Lock()
	n.errors = append(n.errors, message)
	n.mu.Unlock()
}

func (n *stubNotifier) eventCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

type zeroPriceService struct{}

func (zeroPriceService) TokenPriceUSD(context.Context, string) (float64, error) { return 0, nil }

type placeholderMetadataService struct{}

func (placeholderMetadataService) TokenMetadata(context.Context, string) (string, string, error) {
	return "", "", errors.New("no metadata")
}

func newTestPoller(t *testing.T, fetcher *stubFetcher, notifier *stubNotifier) (*Poller, *usecases.WatchRegistry) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry := usecases.NewWatchRegistry(logger)
	enricher := usecases.NewEnricher(logger, zeroPriceService{}, placeholderMetadataService{})
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	return NewPoller(logger, fetcher, enricher, registry, notifier, metrics, 10*time.Millisecond), registry
}

func TestPollOnceDeduplicatesHeadSignature(t *testing.T) {
	fetcher := &stubFetcher{}
	notifier := &stubNotifier{}
	poller, registry := newTestPoller(t, fetcher, notifier)

	entry, _ := registry.Track(testWallet)
	ctx := context.Background()

	// First successful poll announces the head even with no prior state.
	fetcher.setHead("sig-1")
	poller.pollOnce(ctx, entry)
	require.Equal(t, 1, notifier.eventCount())
	require.Equal(t, "sig-1", entry.LastSeenSignature())

	// Same head again: no second notification.
	poller.pollOnce(ctx, entry)
	poller.pollOnce(ctx, entry)
	require.Equal(t, 1, notifier.eventCount())

	// A new head is announced exactly once.
	fetcher.setHead("sig-2")
	poller.pollOnce(ctx, entry)
	poller.pollOnce(ctx, entry)
	require.Equal(t, 2, notifier.eventCount())
	require.Equal(t, "sig-2", entry.LastSeenSignature())

	event := notifier.events[1]
	require.Equal(t, testWallet, event.WalletAddress)
	require.Equal(t, "sig-2", event.Signature)
	require.Equal(t, []string{"Unknown"}, event.Actions)
	require.Equal(t, "https://solscan.io/tx/sig-2", event.Link)
	require.Contains(t, event.Message, "sig-2")
}

func TestPollOnceEmptyPage(t *testing.T) {
	fetcher := &stubFetcher{}
	notifier := &stubNotifier{}
	poller, registry := newTestPoller(t, fetcher, notifier)

	entry, _ := registry.Track(testWallet)
	poller.pollOnce(context.Background(), entry)

	require.Zero(t, notifier.eventCount())
	require.Empty(t, entry.LastSeenSignature())
}

func TestPollOnceFetchErrorBroadcastsAndKeepsState(t *testing.T) {
	fetcher := &stubFetcher{}
	notifier := &stubNotifier{}
	poller, registry := newTestPoller(t, fetcher, notifier)

	entry, _ := registry.Track(testWallet)
	entry.SetLastSeenSignature("sig-1")

	fetcher.mu.Lock()
	fetcher.err = errors.New("helius api status 500: internal error")
	fetcher.mu.Unlock()

	poller.pollOnce(context.Background(), entry)

	// An error event goes out and dedup state does not advance.
	require.Zero(t, notifier.eventCount())
	require.Len(t, notifier.errors, 1)
	require.Contains(t, notifier.errors[0], "status 500")
	require.Equal(t, "sig-1", entry.LastSeenSignature())
}

func TestWatchStopsWhenUntracked(t *testing.T) {
	fetcher := &stubFetcher{}
	notifier := &stubNotifier{}
	poller, registry := newTestPoller(t, fetcher, notifier)

	entry, _ := registry.Track(testWallet)

	done := make(chan struct{})
	go func() {
		poller.Watch(context.Background(), entry)
		close(done)
	}()

	registry.Untrack(testWallet)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after untrack")
	}
}

func TestWatchStopsOnContextCancel(t *testing.T) {
	fetcher := &stubFetcher{}
	notifier := &stubNotifier{}
	poller, registry := newTestPoller(t, fetcher, notifier)

	entry, _ := registry.Track(testWallet)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Watch(ctx, entry)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
}
