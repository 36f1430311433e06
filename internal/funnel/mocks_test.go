package funnel_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/easyforty/funnel-go/internal/analytics"
	"github.com/easyforty/funnel-go/internal/blob"
	"github.com/easyforty/funnel-go/internal/funnel"
	"github.com/easyforty/funnel-go/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentSMS struct {
	to   string
	text string
}

// mockSMS records outbound messages and can be configured to fail.
type mockSMS struct {
	mu      sync.Mutex
	sent    []sentSMS
	sendErr error
}

func (m *mockSMS) Send(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, sentSMS{to: to, text: text})

	return m.sendErr
}

func (m *mockSMS) messages() []sentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]sentSMS, len(m.sent))
	copy(out, m.sent)

	return out
}

// mockFetcher serves attachment bytes from a map; unknown URLs fail.
type mockFetcher struct {
	data map[string][]byte
}

func (m *mockFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if data, ok := m.data[url]; ok {
		return data, nil
	}

	return nil, fmt.Errorf("no media at %s", url)
}

// capturedEvents records every published lifecycle event.
type capturedEvents struct {
	mu        sync.Mutex
	submitted []*analytics.LeadSubmittedEvent
	verified  []*analytics.LeadVerifiedEvent
	optedOut  []*analytics.LeadOptedOutEvent
	rotated   []*analytics.LinkRotatedEvent
}

func (c *capturedEvents) events() funnel.Events {
	return funnel.Events{
		LeadSubmitted: func(e *analytics.LeadSubmittedEvent) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.submitted = append(c.submitted, e)

			return nil
		},
		LeadVerified: func(e *analytics.LeadVerifiedEvent) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.verified = append(c.verified, e)

			return nil
		},
		LeadOptedOut: func(e *analytics.LeadOptedOutEvent) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.optedOut = append(c.optedOut, e)

			return nil
		},
		LinkRotated: func(e *analytics.LinkRotatedEvent) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.rotated = append(c.rotated, e)

			return nil
		},
	}
}

type testFixture struct {
	service *funnel.Service
	store   *store.MemoryStore
	pool    *funnel.Pool
	sms     *mockSMS
	blobs   *blob.MemoryStore
	events  *capturedEvents
}

func newFixture(media map[string][]byte) *testFixture {
	st := store.NewMemoryStore()
	pool := funnel.NewPool(st, zap.NewNop())
	sender := &mockSMS{}
	blobs := blob.NewMemoryStore()
	events := &capturedEvents{}

	var keyN int
	keyGen := func() string {
		keyN++

		return fmt.Sprintf("key%04d", keyN)
	}

	texts := funnel.Texts{
		Brand:        "EasyForty",
		SiteURL:      "https://easyforty.com",
		SupportEmail: "help@easyforty.com",
		Pledge:       "40",
	}

	service := funnel.NewService(
		st,
		pool,
		sender,
		&mockFetcher{data: media},
		blobs,
		texts,
		keyGen,
		events.events(),
		zap.NewNop(),
	)

	return &testFixture{
		service: service,
		store:   st,
		pool:    pool,
		sms:     sender,
		blobs:   blobs,
		events:  events,
	}
}

func (f *testFixture) seed(t *testing.T, entries ...funnel.SeedEntry) {
	t.Helper()

	_, err := f.pool.Seed(context.Background(), entries)
	require.NoError(t, err)
}

func (f *testFixture) submit(t *testing.T, phone, payout string) *funnel.SubmitResult {
	t.Helper()

	result, err := f.service.Submit(context.Background(), funnel.SubmitRequest{
		Phone:        phone,
		PayoutHandle: payout,
		Consent:      true,
	})
	require.NoError(t, err)

	return result
}

func (f *testFixture) linkByID(t *testing.T, id int64) *funnel.Link {
	t.Helper()

	link, err := f.store.LinkByID(context.Background(), id)
	require.NoError(t, err)

	return link
}

func (f *testFixture) leadByPhone(t *testing.T, phone string) *funnel.Lead {
	t.Helper()

	lead, err := f.store.LeadByPhone(context.Background(), phone)
	require.NoError(t, err)

	return lead
}
