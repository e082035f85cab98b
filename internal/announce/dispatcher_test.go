package announce

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vowsuite/vowsuite/internal/config"
	"github.com/vowsuite/vowsuite/internal/guest"
)

// memStore is an in-memory Store for dispatcher tests.
type memStore struct {
	mu           sync.Mutex
	announcement *Announcement
	pending      []*Recipient
	sent         map[uuid.UUID]string
	failed       map[uuid.UUID]string
	finished     bool
	weddingVars  map[string]interface{}
}

func newMemStore(a *Announcement, recipients []*Recipient) *memStore {
	return &memStore{
		announcement: a,
		pending:      recipients,
		sent:         make(map[uuid.UUID]string),
		failed:       make(map[uuid.UUID]string),
	}
}

func (s *memStore) NextQueued(ctx context.Context) (*Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return nil, nil
	}
	return s.announcement, nil
}

func (s *memStore) ClaimPending(ctx context.Context, announcementID uuid.UUID, limit int) ([]*Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	batch := s.pending[:limit]
	s.pending = s.pending[limit:]
	return batch, nil
}

func (s *memStore) MarkRecipientSent(ctx context.Context, recipientID uuid.UUID, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[recipientID] = messageID
	return nil
}

func (s *memStore) MarkRecipientFailed(ctx context.Context, recipientID uuid.UUID, sendErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[recipientID] = sendErr
	return nil
}

func (s *memStore) WeddingVars(ctx context.Context, weddingID uuid.UUID) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.weddingVars == nil {
		return map[string]interface{}{}, nil
	}
	return s.weddingVars, nil
}

func (s *memStore) FinishIfDone(ctx context.Context, announcementID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		s.finished = true
		return true, nil
	}
	return false, nil
}

// fakeChannel records sends and can be told to fail specific addresses.
type fakeChannel struct {
	mu       sync.Mutex
	name     string
	sent     []*Message
	failAddr string
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(ctx context.Context, msg *Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.To == c.failAddr {
		return "", errors.New("provider rejected message")
	}
	c.sent = append(c.sent, msg)
	return "msg-" + msg.To, nil
}

func testRecipient(channel, address, firstName string) *Recipient {
	return &Recipient{
		ID:             uuid.New(),
		GuestID:        uuid.New(),
		Channel:        channel,
		Address:        address,
		GuestFirstName: firstName,
		Status:         RecipientPending,
	}
}

func testDispatcher(store Store, channels map[string]Channel) *Dispatcher {
	return NewDispatcher(store, NewTemplateService(), channels, NewThrottle(nil, 0), nil,
		config.AnnounceConfig{TickIntervalSeconds: 1, BatchSize: 10})
}

func TestDispatchRendersAndSends(t *testing.T) {
	a := &Announcement{
		ID:      uuid.New(),
		Subject: "Hi {{ first_name }}!",
		Body:    "{{ first_name }}, the ceremony starts at 4pm.",
		Status:  StatusQueued,
	}
	r1 := testRecipient(guest.ChannelEmail, "jane@example.com", "Jane")
	r2 := testRecipient(guest.ChannelEmail, "sam@example.com", "Sam")
	store := newMemStore(a, []*Recipient{r1, r2})

	email := &fakeChannel{name: "email"}
	d := testDispatcher(store, map[string]Channel{guest.ChannelEmail: email})
	d.tick(context.Background())

	if len(email.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(email.sent))
	}
	if email.sent[0].Subject != "Hi Jane!" {
		t.Errorf("subject = %q", email.sent[0].Subject)
	}
	if email.sent[0].Body != "Jane, the ceremony starts at 4pm." {
		t.Errorf("body = %q", email.sent[0].Body)
	}
	if store.sent[r1.ID] != "msg-jane@example.com" {
		t.Errorf("recipient 1 message ID = %q", store.sent[r1.ID])
	}
	if !store.finished {
		t.Error("announcement never finished")
	}
}

func TestDispatchIncludesWeddingVariables(t *testing.T) {
	a := &Announcement{
		ID:        uuid.New(),
		WeddingID: uuid.New(),
		Subject:   "{{ couple_names }} have news",
		Body:      "{{ first_name }}, see you on {{ wedding_date | prettydate }}.",
		Status:    StatusQueued,
	}
	r := testRecipient(guest.ChannelEmail, "jane@example.com", "Jane")
	store := newMemStore(a, []*Recipient{r})
	store.weddingVars = map[string]interface{}{
		"couple_names": "Jane & Sam",
		"wedding_date": time.Date(2027, time.June, 12, 0, 0, 0, 0, time.UTC),
	}

	email := &fakeChannel{name: "email"}
	d := testDispatcher(store, map[string]Channel{guest.ChannelEmail: email})
	d.tick(context.Background())

	if len(email.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(email.sent))
	}
	if email.sent[0].Subject != "Jane & Sam have news" {
		t.Errorf("subject = %q", email.sent[0].Subject)
	}
	if email.sent[0].Body != "Jane, see you on Saturday, June 12, 2027." {
		t.Errorf("body = %q", email.sent[0].Body)
	}
}

func TestDispatchRoutesByChannel(t *testing.T) {
	a := &Announcement{ID: uuid.New(), Subject: "s", Body: "b", Status: StatusQueued}
	store := newMemStore(a, []*Recipient{
		testRecipient(guest.ChannelEmail, "jane@example.com", "Jane"),
		testRecipient(guest.ChannelSMS, "+15551234567", "Sam"),
	})

	email := &fakeChannel{name: "email"}
	sms := &fakeChannel{name: "sms"}
	d := testDispatcher(store, map[string]Channel{guest.ChannelEmail: email, guest.ChannelSMS: sms})
	d.tick(context.Background())

	if len(email.sent) != 1 || len(sms.sent) != 1 {
		t.Errorf("email=%d sms=%d sends, want 1 each", len(email.sent), len(sms.sent))
	}
}

func TestDispatchFailuresDoNotBlockOthers(t *testing.T) {
	a := &Announcement{ID: uuid.New(), Subject: "s", Body: "b", Status: StatusQueued}
	bad := testRecipient(guest.ChannelEmail, "bounce@example.com", "Bad")
	good := testRecipient(guest.ChannelEmail, "jane@example.com", "Jane")
	store := newMemStore(a, []*Recipient{bad, good})

	email := &fakeChannel{name: "email", failAddr: "bounce@example.com"}
	d := testDispatcher(store, map[string]Channel{guest.ChannelEmail: email})
	d.tick(context.Background())

	if _, ok := store.failed[bad.ID]; !ok {
		t.Error("failed recipient not recorded")
	}
	if _, ok := store.sent[good.ID]; !ok {
		t.Error("good recipient not sent after earlier failure")
	}
	if !store.finished {
		t.Error("announcement never finished")
	}
}

func TestDispatchUnknownChannelFailsRecipient(t *testing.T) {
	a := &Announcement{ID: uuid.New(), Subject: "s", Body: "b", Status: StatusQueued}
	r := testRecipient(guest.ChannelWhatsApp, "+15551234567", "Jane")
	store := newMemStore(a, []*Recipient{r})

	d := testDispatcher(store, map[string]Channel{guest.ChannelEmail: &fakeChannel{name: "email"}})
	d.tick(context.Background())

	if _, ok := store.failed[r.ID]; !ok {
		t.Error("recipient on unconfigured channel should fail")
	}
}

func TestDispatchBadTemplateFailsRecipient(t *testing.T) {
	a := &Announcement{ID: uuid.New(), Subject: "{{ broken", Body: "b", Status: StatusQueued}
	r := testRecipient(guest.ChannelEmail, "jane@example.com", "Jane")
	store := newMemStore(a, []*Recipient{r})

	email := &fakeChannel{name: "email"}
	d := testDispatcher(store, map[string]Channel{guest.ChannelEmail: email})
	d.tick(context.Background())

	if len(email.sent) != 0 {
		t.Error("unrenderable announcement was sent")
	}
	if _, ok := store.failed[r.ID]; !ok {
		t.Error("render failure not recorded on recipient")
	}
}
