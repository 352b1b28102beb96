package gateway

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/vestnik-bot/vestnik/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// fakeStore is a minimal store.Store for handler tests.
type fakeStore struct {
	counts    map[store.Status]int64
	countsErr error
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) Add(_ context.Context, _ *store.Application) (int64, error) {
	return 0, nil
}

func (f *fakeStore) ByID(_ context.Context, _ int64) (*store.Application, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) SetStatus(_ context.Context, _ int64, _, _ store.Status) error {
	return nil
}

func (f *fakeStore) ApprovedUnpublished(_ context.Context, _ time.Time) ([]store.Application, error) {
	return nil, nil
}

func (f *fakeStore) MarkPublished(_ context.Context, _ int64) error { return nil }

func (f *fakeStore) CountRecentByUser(_ context.Context, _ int64, _ time.Duration) (int, error) {
	return 0, nil
}

func (f *fakeStore) CountByStatus(_ context.Context) (map[store.Status]int64, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	return f.counts, nil
}

func (f *fakeStore) PurgeTerminal(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}
