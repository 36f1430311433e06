package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/easyforty/funnel-go/internal/blob"
	"github.com/easyforty/funnel-go/internal/funnel"
	"github.com/easyforty/funnel-go/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testPhone  = "+15551234567"
	testPayout = "$leadcash"
	testLink   = "https://ref.example.com/a"
)

type mockSMS struct {
	mu   sync.Mutex
	sent []string
}

func (m *mockSMS) Send(_ context.Context, _, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, text)

	return nil
}

type mockFetcher struct{}

func (mockFetcher) Fetch(_ context.Context, _ string) ([]byte, error) {
	return []byte("img"), nil
}

type fixture struct {
	service *funnel.Service
	store   *store.MemoryStore
	pool    *funnel.Pool
	sms     *mockSMS
}

func newFixture() *fixture {
	st := store.NewMemoryStore()
	pool := funnel.NewPool(st, zap.NewNop())
	sender := &mockSMS{}

	var keyN int

	service := funnel.NewService(
		st,
		pool,
		sender,
		mockFetcher{},
		blob.NewMemoryStore(),
		funnel.Texts{
			Brand:        "EasyForty",
			SiteURL:      "https://easyforty.com",
			SupportEmail: "help@easyforty.com",
			Pledge:       "40",
		},
		func() string {
			keyN++

			return fmt.Sprintf("key%04d", keyN)
		},
		funnel.NoopEvents(),
		zap.NewNop(),
	)

	return &fixture{service: service, store: st, pool: pool, sms: sender}
}

func (f *fixture) seed(t *testing.T, entries ...funnel.SeedEntry) {
	t.Helper()

	_, err := f.pool.Seed(context.Background(), entries)
	require.NoError(t, err)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()

	var statusErr huma.StatusError

	require.True(t, errors.As(err, &statusErr), "expected a status error, got %v", err)

	return statusErr.GetStatus()
}
