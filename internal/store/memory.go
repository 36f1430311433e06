package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/easyforty/funnel-go/internal/funnel"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of funnel.Store, used by unit
// tests and local development. A single mutex guards every transaction, so
// the two atomic sections (allocate+insert, record-usage+rotate) are
// serialized exactly like the database-backed store serializes them.
// Rollback is copy-on-write: InTx snapshots links and leads and restores
// the snapshot when fn fails.
type MemoryStore struct {
	mu         sync.Mutex
	links      []*funnel.Link // ascending id order
	leads      map[string]*funnel.Lead
	messages   []*funnel.Message
	evidence   []*funnel.Evidence
	nextLinkID int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leads:      make(map[string]*funnel.Lead),
		nextLinkID: 1,
	}
}

func (m *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx funnel.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	savedLinks := copyLinks(m.links)
	savedLeads := copyLeads(m.leads)
	savedNextID := m.nextLinkID

	if err := fn(ctx, &memoryTx{store: m}); err != nil {
		m.links = savedLinks
		m.leads = savedLeads
		m.nextLinkID = savedNextID

		return err
	}

	return nil
}

func (m *MemoryStore) LeadByPhone(_ context.Context, phone string) (*funnel.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.leadByPhone(phone)
}

func (m *MemoryStore) LinkByID(_ context.Context, id int64) (*funnel.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.linkByID(id)
}

func (m *MemoryStore) ActiveLink(_ context.Context) (*funnel.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, link := range m.links {
		if link.Active {
			c := *link

			return &c, nil
		}
	}

	return nil, funnel.ErrNotFound
}

func (m *MemoryStore) ListLinks(_ context.Context) ([]*funnel.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return copyLinks(m.links), nil
}

func (m *MemoryStore) CountLeads(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.leads)), nil
}

func (m *MemoryStore) CountLeadsByStatus(_ context.Context, status funnel.Status) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64

	for _, lead := range m.leads {
		if lead.Status == status {
			n++
		}
	}

	return n, nil
}

func (m *MemoryStore) InsertMessage(_ context.Context, msg *funnel.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *msg
	m.messages = append(m.messages, &c)

	return nil
}

func (m *MemoryStore) InsertEvidence(_ context.Context, ev *funnel.Evidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *ev
	m.evidence = append(m.evidence, &c)

	return nil
}

// Messages returns a copy of the conversation log. Test helper.
func (m *MemoryStore) Messages() []*funnel.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*funnel.Message, 0, len(m.messages))
	for _, msg := range m.messages {
		c := *msg
		out = append(out, &c)
	}

	return out
}

// EvidenceFor returns the evidence rows for a lead. Test helper.
func (m *MemoryStore) EvidenceFor(leadID uuid.UUID) []*funnel.Evidence {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*funnel.Evidence

	for _, ev := range m.evidence {
		if ev.LeadID == leadID {
			c := *ev
			out = append(out, &c)
		}
	}

	return out
}

// Internal accessors; callers hold m.mu.

func (m *MemoryStore) leadByPhone(phone string) (*funnel.Lead, error) {
	lead, ok := m.leads[phone]
	if !ok {
		return nil, funnel.ErrNotFound
	}

	c := *lead

	return &c, nil
}

func (m *MemoryStore) linkByID(id int64) (*funnel.Link, error) {
	for _, link := range m.links {
		if link.ID == id {
			c := *link

			return &c, nil
		}
	}

	return nil, funnel.ErrNotFound
}

func (m *MemoryStore) leadByID(id uuid.UUID) (*funnel.Lead, error) {
	for _, lead := range m.leads {
		if lead.ID == id {
			return lead, nil
		}
	}

	return nil, funnel.ErrNotFound
}

func copyLinks(links []*funnel.Link) []*funnel.Link {
	out := make([]*funnel.Link, 0, len(links))
	for _, link := range links {
		c := *link
		out = append(out, &c)
	}

	return out
}

func copyLeads(leads map[string]*funnel.Lead) map[string]*funnel.Lead {
	out := make(map[string]*funnel.Lead, len(leads))
	for phone, lead := range leads {
		c := *lead
		out[phone] = &c
	}

	return out
}

// memoryTx mutates the store's live state; InTx restores the pre-tx
// snapshot on failure.
type memoryTx struct {
	store *MemoryStore
}

func (t *memoryTx) ActiveLinkWithCapacity(_ context.Context) (*funnel.Link, error) {
	for _, link := range t.store.links {
		if link.Active && link.UsedCount < link.Capacity {
			c := *link

			return &c, nil
		}
	}

	return nil, funnel.ErrNotFound
}

func (t *memoryTx) NextRotationCandidate(_ context.Context) (*funnel.Link, error) {
	for _, link := range t.store.links {
		if !link.Active && link.UsedCount < link.Capacity {
			c := *link

			return &c, nil
		}
	}

	return nil, funnel.ErrNotFound
}

func (t *memoryTx) LinkByID(_ context.Context, id int64) (*funnel.Link, error) {
	return t.store.linkByID(id)
}

func (t *memoryTx) InsertLink(_ context.Context, url string, capacity int) (*funnel.Link, error) {
	link := &funnel.Link{
		ID:        t.store.nextLinkID,
		URL:       url,
		Capacity:  capacity,
		CreatedAt: time.Now().UTC(),
	}
	t.store.nextLinkID++
	t.store.links = append(t.store.links, link)

	c := *link

	return &c, nil
}

func (t *memoryTx) HasActiveLink(_ context.Context) (bool, error) {
	for _, link := range t.store.links {
		if link.Active {
			return true, nil
		}
	}

	return false, nil
}

func (t *memoryTx) SetLinkActive(_ context.Context, id int64, active bool) error {
	for _, link := range t.store.links {
		if link.ID == id {
			link.Active = active

			return nil
		}
	}

	return funnel.ErrNotFound
}

func (t *memoryTx) SetLinkUsage(_ context.Context, id int64, used int) error {
	for _, link := range t.store.links {
		if link.ID == id {
			link.UsedCount = used

			return nil
		}
	}

	return funnel.ErrNotFound
}

func (t *memoryTx) LeadByPhone(_ context.Context, phone string) (*funnel.Lead, error) {
	return t.store.leadByPhone(phone)
}

func (t *memoryTx) InsertLead(_ context.Context, lead *funnel.Lead) error {
	if _, exists := t.store.leads[lead.Phone]; exists {
		return fmt.Errorf("lead with phone %s already exists", lead.Phone)
	}

	c := *lead
	t.store.leads[lead.Phone] = &c

	return nil
}

func (t *memoryTx) UpdateLeadPayout(_ context.Context, id uuid.UUID, payout string, at time.Time) error {
	lead, err := t.store.leadByID(id)
	if err != nil {
		return err
	}

	lead.PayoutHandle = payout
	lead.LastUpdated = at

	return nil
}

func (t *memoryTx) UpdateLeadStatus(_ context.Context, id uuid.UUID, status funnel.Status, at time.Time) error {
	lead, err := t.store.leadByID(id)
	if err != nil {
		return err
	}

	lead.Status = status
	lead.LastUpdated = at

	return nil
}
