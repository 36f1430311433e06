package funnel_test

import (
	"context"
	"testing"

	"github.com/easyforty/funnel-go/internal/funnel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPhone  = "+15551234567"
	testPayout = "$leadcash"
	testLinkA  = "https://ref.example.com/a"
	testLinkB  = "https://ref.example.com/b"
)

func TestService_Submit_Validation(t *testing.T) {
	f := newFixture(nil)
	f.seed(t, funnel.SeedEntry{URL: testLinkA, Capacity: 40})

	t.Run("requires consent", func(t *testing.T) {
		_, err := f.service.Submit(context.Background(), funnel.SubmitRequest{
			Phone:        testPhone,
			PayoutHandle: testPayout,
			Consent:      false,
		})

		assert.ErrorIs(t, err, funnel.ErrConsentRequired)
	})

	t.Run("requires a valid phone", func(t *testing.T) {
		_, err := f.service.Submit(context.Background(), funnel.SubmitRequest{
			Phone:        "12345",
			PayoutHandle: testPayout,
			Consent:      true,
		})

		assert.ErrorIs(t, err, funnel.ErrInvalidPhone)
	})

	t.Run("requires a payout handle", func(t *testing.T) {
		_, err := f.service.Submit(context.Background(), funnel.SubmitRequest{
			Phone:        testPhone,
			PayoutHandle: "   ",
			Consent:      true,
		})

		assert.ErrorIs(t, err, funnel.ErrMissingPayoutHandle)
	})

	t.Run("validation leaves no side effects", func(t *testing.T) {
		count, err := f.store.CountLeads(context.Background())

		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, f.sms.messages())
	})
}

func TestService_Submit_CreatesLead(t *testing.T) {
	f := newFixture(nil)
	f.seed(t, funnel.SeedEntry{URL: testLinkA, Capacity: 40})

	result := f.submit(t, testPhone, testPayout)

	assert.True(t, result.Created)
	assert.Equal(t, funnel.StatusLinkSent, result.Lead.Status)
	assert.Equal(t, testLinkA, result.Link.URL)

	t.Run("welcome sms carries the link", func(t *testing.T) {
		sent := f.sms.messages()

		require.Len(t, sent, 1)
		assert.Equal(t, testPhone, sent[0].to)
		assert.Contains(t, sent[0].text, testLinkA)
		assert.Contains(t, sent[0].text, "STOP")
	})

	t.Run("outbound message is logged", func(t *testing.T) {
		msgs := f.store.Messages()

		require.Len(t, msgs, 1)
		assert.Equal(t, funnel.DirectionOut, msgs[0].Direction)
		assert.Equal(t, result.Lead.ID, msgs[0].LeadID)
	})

	t.Run("allocation does not consume capacity", func(t *testing.T) {
		link := f.linkByID(t, result.Link.ID)

		assert.Equal(t, 0, link.UsedCount)
		assert.True(t, link.Active)
	})

	t.Run("submission event is published", func(t *testing.T) {
		require.Len(t, f.events.submitted, 1)
		assert.Equal(t, result.Lead.ID.String(), f.events.submitted[0].LeadID)
		assert.False(t, f.events.submitted[0].Resubmitted)
	})
}

func TestService_Submit_Resubmission(t *testing.T) {
	f := newFixture(nil)
	f.seed(t,
		funnel.SeedEntry{URL: testLinkA, Capacity: 40},
		funnel.SeedEntry{URL: testLinkB, Capacity: 40},
	)

	first := f.submit(t, testPhone, testPayout)
	second := f.submit(t, "+1 555-123-4567", "$newhandle")

	t.Run("does not create a second lead", func(t *testing.T) {
		count, err := f.store.CountLeads(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
		assert.False(t, second.Created)
		assert.Equal(t, first.Lead.ID, second.Lead.ID)
	})

	t.Run("updates the payout handle", func(t *testing.T) {
		lead := f.leadByPhone(t, testPhone)

		assert.Equal(t, "$newhandle", lead.PayoutHandle)
	})

	t.Run("keeps the originally allocated link", func(t *testing.T) {
		assert.Equal(t, first.Link.ID, second.Link.ID)

		lead := f.leadByPhone(t, testPhone)
		assert.Equal(t, first.Link.ID, lead.LinkID)
	})

	t.Run("sends the welcome sms again", func(t *testing.T) {
		sent := f.sms.messages()

		require.Len(t, sent, 2)
		assert.Contains(t, sent[1].text, testLinkA)
	})

	t.Run("marks the event as a resubmission", func(t *testing.T) {
		require.Len(t, f.events.submitted, 2)
		assert.True(t, f.events.submitted[1].Resubmitted)
	})
}

func TestService_Submit_NoCapacity(t *testing.T) {
	t.Run("empty pool rejects the submission", func(t *testing.T) {
		f := newFixture(nil)

		_, err := f.service.Submit(context.Background(), funnel.SubmitRequest{
			Phone:        testPhone,
			PayoutHandle: testPayout,
			Consent:      true,
		})

		assert.ErrorIs(t, err, funnel.ErrNoCapacity)

		count, countErr := f.store.CountLeads(context.Background())
		require.NoError(t, countErr)
		assert.Zero(t, count, "no lead is written without a link")
		assert.Empty(t, f.sms.messages())
	})

	t.Run("exhausted pool rejects even a resubmission", func(t *testing.T) {
		f := newFixture(map[string][]byte{"https://media.example.com/p.jpg": []byte("img")})
		f.seed(t, funnel.SeedEntry{URL: testLinkA, Capacity: 1})

		f.submit(t, testPhone, testPayout)

		// Verification fills the only link; no spare to rotate to.
		err := f.service.HandleInbound(context.Background(), funnel.InboundMessage{
			From:      testPhone,
			MediaURLs: []string{"https://media.example.com/p.jpg"},
		})
		require.NoError(t, err)

		_, err = f.service.Submit(context.Background(), funnel.SubmitRequest{
			Phone:        testPhone,
			PayoutHandle: testPayout,
			Consent:      true,
		})

		assert.ErrorIs(t, err, funnel.ErrNoCapacity)
	})
}

func TestService_Submit_OptedOut(t *testing.T) {
	f := newFixture(nil)
	f.seed(t, funnel.SeedEntry{URL: testLinkA, Capacity: 40})

	f.submit(t, testPhone, testPayout)

	err := f.service.HandleInbound(context.Background(), funnel.InboundMessage{
		From: testPhone,
		Text: "STOP",
	})
	require.NoError(t, err)

	_, err = f.service.Submit(context.Background(), funnel.SubmitRequest{
		Phone:        testPhone,
		PayoutHandle: testPayout,
		Consent:      true,
	})

	assert.ErrorIs(t, err, funnel.ErrOptedOut)

	lead := f.leadByPhone(t, testPhone)
	assert.Equal(t, funnel.StatusOptedOut, lead.Status, "a fresh submission cannot re-arm an opted-out lead")
}
