package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"contactcenter_backend/internal/dialer/repository"
	"contactcenter_backend/internal/events"
	"contactcenter_backend/platform/apperr"
	"contactcenter_backend/platform/bus"
	"contactcenter_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeTx implements repository.TxStore over in-memory maps.
type fakeTx struct {
	qualifications map[uuid.UUID]repository.Qualification
	campaigns      map[uuid.UUID]repository.Campaign
	contacts       map[uuid.UUID]repository.Contact

	updatedRules [][]repository.QuotaRule
	statuses     map[uuid.UUID]repository.ContactStatus
	history      []repository.CallHistoryRecord
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		qualifications: map[uuid.UUID]repository.Qualification{},
		campaigns:      map[uuid.UUID]repository.Campaign{},
		contacts:       map[uuid.UUID]repository.Contact{},
		statuses:       map[uuid.UUID]repository.ContactStatus{},
	}
}

func (f *fakeTx) GetQualification(_ context.Context, id uuid.UUID) (repository.Qualification, error) {
	q, ok := f.qualifications[id]
	if !ok {
		return repository.Qualification{}, repository.ErrQualificationNotFound
	}
	return q, nil
}

func (f *fakeTx) GetCampaignForUpdate(_ context.Context, id uuid.UUID) (repository.Campaign, error) {
	c, ok := f.campaigns[id]
	if !ok {
		return repository.Campaign{}, repository.ErrCampaignNotFound
	}
	return c, nil
}

func (f *fakeTx) GetContact(_ context.Context, id uuid.UUID) (repository.Contact, error) {
	c, ok := f.contacts[id]
	if !ok {
		return repository.Contact{}, repository.ErrContactNotFound
	}
	return c, nil
}

func (f *fakeTx) UpdateCampaignQuotaRules(_ context.Context, campaignID uuid.UUID, rules []repository.QuotaRule) error {
	c := f.campaigns[campaignID]
	c.QuotaRules = rules
	f.campaigns[campaignID] = c
	f.updatedRules = append(f.updatedRules, rules)
	return nil
}

func (f *fakeTx) SetContactStatus(_ context.Context, contactID uuid.UUID, status repository.ContactStatus) error {
	f.statuses[contactID] = status
	return nil
}

func (f *fakeTx) InsertCallHistory(_ context.Context, rec repository.CallHistoryRecord) error {
	f.history = append(f.history, rec)
	return nil
}

// fakeStore implements repository.Store.
type fakeStore struct {
	tx *fakeTx

	lease    *repository.ContactLease
	leaseErr error

	recycleAffected int64
	recycleErr      error

	inserted []repository.NewContactParams
}

func (f *fakeStore) LeaseNextContact(context.Context, uuid.UUID) (*repository.ContactLease, error) {
	return f.lease, f.leaseErr
}

func (f *fakeStore) Recycle(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return f.recycleAffected, f.recycleErr
}

func (f *fakeStore) InsertContacts(_ context.Context, _ uuid.UUID, rows []repository.NewContactParams) (int, error) {
	f.inserted = append(f.inserted, rows...)
	return len(rows), nil
}

func (f *fakeStore) GetCampaign(_ context.Context, id uuid.UUID) (repository.Campaign, error) {
	return f.tx.GetCampaignForUpdate(context.Background(), id)
}

func (f *fakeStore) WithinTx(_ context.Context, fn func(tx repository.TxStore) error) error {
	return fn(f.tx)
}

// fakePublisher records published envelopes.
type fakePublisher struct {
	channels  []string
	envelopes []bus.Envelope
}

func (f *fakePublisher) Publish(_ context.Context, channel string, env bus.Envelope) {
	f.channels = append(f.channels, channel)
	f.envelopes = append(f.envelopes, env)
}

func newTestService(store *fakeStore, pub *fakePublisher) *Service {
	return New(store, pub, logger.New("development"))
}

func seedOutcome(tx *fakeTx, qualType repository.QualificationType, rules []repository.QuotaRule) RecordOutcomeInput {
	in := RecordOutcomeInput{
		ContactID:       uuid.New(),
		QualificationID: uuid.New(),
		CampaignID:      uuid.New(),
		AgentID:         uuid.New(),
	}
	tx.qualifications[in.QualificationID] = repository.Qualification{
		ID: in.QualificationID, Code: "Q", Type: qualType, IsRecyclable: true,
	}
	tx.campaigns[in.CampaignID] = repository.Campaign{
		ID: in.CampaignID, Name: "summer", QuotaRules: rules,
	}
	tx.contacts[in.ContactID] = repository.Contact{
		ID: in.ContactID, CampaignID: in.CampaignID,
		PhoneNumber: "+33612345678", PostalCode: "75000",
		Status: repository.StatusCalled,
	}
	return in
}

func TestRecordOutcomePositiveIncrementsQuota(t *testing.T) {
	tx := newFakeTx()
	in := seedOutcome(tx, repository.QualificationPositive, []repository.QuotaRule{
		{ContactField: "postalCode", Operator: repository.OperatorEquals, Value: "75000"},
	})
	pub := &fakePublisher{}
	svc := newTestService(&fakeStore{tx: tx}, pub)

	result, err := svc.RecordOutcome(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tx.updatedRules) != 1 {
		t.Fatalf("expected one quota persist, got %d", len(tx.updatedRules))
	}
	if result.Campaign.QuotaRules[0].CurrentCount != 1 {
		t.Fatalf("expected counter 1, got %d", result.Campaign.QuotaRules[0].CurrentCount)
	}
	if tx.statuses[in.ContactID] != repository.StatusQualified {
		t.Fatalf("expected contact qualified, got %q", tx.statuses[in.ContactID])
	}
	if len(tx.history) != 1 {
		t.Fatalf("expected one history record, got %d", len(tx.history))
	}
	if len(pub.envelopes) != 1 || pub.envelopes[0].Type != events.TypeCampaignUpdated {
		t.Fatalf("expected one campaignUpdated event, got %+v", pub.envelopes)
	}
	if pub.channels[0] != events.ChannelDomain {
		t.Fatalf("expected domain channel, got %q", pub.channels[0])
	}
}

func TestRecordOutcomeNegativeSkipsQuota(t *testing.T) {
	tx := newFakeTx()
	in := seedOutcome(tx, repository.QualificationNegative, []repository.QuotaRule{
		{ContactField: "postalCode", Operator: repository.OperatorEquals, Value: "75000"},
	})
	svc := newTestService(&fakeStore{tx: tx}, &fakePublisher{})

	if _, err := svc.RecordOutcome(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tx.updatedRules) != 0 {
		t.Fatal("expected no quota persist for a negative outcome")
	}
	if tx.statuses[in.ContactID] != repository.StatusQualified {
		t.Fatal("expected contact qualified regardless of outcome type")
	}
	if len(tx.history) != 1 {
		t.Fatalf("expected one history record, got %d", len(tx.history))
	}
}

func TestRecordOutcomePositiveNoMatchSkipsPersist(t *testing.T) {
	tx := newFakeTx()
	in := seedOutcome(tx, repository.QualificationPositive, []repository.QuotaRule{
		{ContactField: "postalCode", Operator: repository.OperatorEquals, Value: "13001"},
	})
	svc := newTestService(&fakeStore{tx: tx}, &fakePublisher{})

	if _, err := svc.RecordOutcome(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tx.updatedRules) != 0 {
		t.Fatal("expected no quota persist when no rule matches")
	}
}

func TestRecordOutcomeUnknownQualification(t *testing.T) {
	tx := newFakeTx()
	in := seedOutcome(tx, repository.QualificationPositive, nil)
	delete(tx.qualifications, in.QualificationID)
	pub := &fakePublisher{}
	svc := newTestService(&fakeStore{tx: tx}, pub)

	_, err := svc.RecordOutcome(context.Background(), in)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(tx.history) != 0 {
		t.Fatal("expected no history record on rollback")
	}
	if len(pub.envelopes) != 0 {
		t.Fatal("expected no event after a failed transaction")
	}
}

func TestRecordOutcomeComputesDuration(t *testing.T) {
	tx := newFakeTx()
	in := seedOutcome(tx, repository.QualificationNeutral, nil)
	in.StartedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	in.EndedAt = in.StartedAt.Add(95 * time.Second)
	svc := newTestService(&fakeStore{tx: tx}, &fakePublisher{})

	if _, err := svc.RecordOutcome(context.Background(), in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tx.history[0].DurationSeconds; got != 95 {
		t.Fatalf("expected duration 95s, got %d", got)
	}
}

func TestLeaseNextEmptyQueue(t *testing.T) {
	svc := newTestService(&fakeStore{tx: newFakeTx()}, &fakePublisher{})

	lease, err := svc.LeaseNext(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lease != nil {
		t.Fatalf("expected nil lease on empty queue, got %+v", lease)
	}
}

// claimingStore hands out each pending lease exactly once, mirroring the
// skip-locked claim the real store makes.
type claimingStore struct {
	fakeStore
	mu      sync.Mutex
	pending []*repository.ContactLease
}

func (s *claimingStore) LeaseNextContact(context.Context, uuid.UUID) (*repository.ContactLease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil, nil
	}
	lease := s.pending[0]
	s.pending = s.pending[1:]
	return lease, nil
}

func TestLeaseNextConcurrentCallersGetDistinctContacts(t *testing.T) {
	campaignID := uuid.New()
	store := &claimingStore{
		pending: []*repository.ContactLease{
			{Contact: repository.Contact{ID: uuid.New(), CampaignID: campaignID}},
			{Contact: repository.Contact{ID: uuid.New(), CampaignID: campaignID}},
		},
	}
	svc := New(store, &fakePublisher{}, logger.New("development"))

	const callers = 3
	results := make(chan *repository.ContactLease, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := svc.LeaseNext(context.Background(), campaignID)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results <- lease
		}()
	}
	wg.Wait()
	close(results)

	seen := map[uuid.UUID]bool{}
	empty := 0
	for lease := range results {
		if lease == nil {
			empty++
			continue
		}
		if seen[lease.Contact.ID] {
			t.Fatalf("contact %s leased twice", lease.Contact.ID)
		}
		seen[lease.Contact.ID] = true
	}
	if len(seen) != 2 || empty != 1 {
		t.Fatalf("expected 2 distinct leases and 1 empty result, got %d leases, %d empty", len(seen), empty)
	}
}

func TestLeaseNextMapsStoreError(t *testing.T) {
	store := &fakeStore{tx: newFakeTx(), leaseErr: repository.ErrCampaignNotFound}
	svc := newTestService(store, &fakePublisher{})

	_, err := svc.LeaseNext(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecyclePublishesOnlyWhenAffected(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStore{tx: newFakeTx(), recycleAffected: 3}
	svc := newTestService(store, pub)

	campaignID := uuid.New()
	store.tx.campaigns[campaignID] = repository.Campaign{ID: campaignID, Name: "summer"}

	affected, err := svc.Recycle(context.Background(), campaignID, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if affected != 3 {
		t.Fatalf("expected 3 affected, got %d", affected)
	}
	if len(pub.envelopes) != 2 {
		t.Fatalf("expected campaignUpdated and contactsRecycled, got %+v", pub.envelopes)
	}
	if pub.envelopes[0].Type != events.TypeCampaignUpdated {
		t.Fatalf("expected campaign snapshot first, got %q", pub.envelopes[0].Type)
	}
	var snapshot repository.Campaign
	if err := json.Unmarshal(pub.envelopes[0].Payload, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.ID != campaignID {
		t.Fatalf("expected snapshot of campaign %s, got %s", campaignID, snapshot.ID)
	}
	if pub.envelopes[1].Type != events.TypeContactsRecycled {
		t.Fatalf("expected contactsRecycled, got %q", pub.envelopes[1].Type)
	}

	store.recycleAffected = 0
	if _, err := svc.Recycle(context.Background(), campaignID, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.envelopes) != 2 {
		t.Fatal("expected no event when nothing was recycled")
	}
}

func TestRecycleUnknownQualification(t *testing.T) {
	store := &fakeStore{tx: newFakeTx(), recycleErr: repository.ErrQualificationNotFound}
	svc := newTestService(store, &fakePublisher{})

	_, err := svc.Recycle(context.Background(), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestImportContactsNormalizesPhones(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStore{tx: newFakeTx()}
	svc := newTestService(store, pub)

	count, err := svc.ImportContacts(context.Background(), uuid.New(), []ImportContactInput{
		{PhoneNumber: "06 12 34 56 78", FirstName: "Luc"},
	}, []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 imported, got %d", count)
	}
	if store.inserted[0].PhoneNumber != "+33612345678" {
		t.Fatalf("expected normalized E.164 number, got %q", store.inserted[0].PhoneNumber)
	}
	if len(pub.envelopes) != 1 || pub.envelopes[0].Type != events.TypeContactsImported {
		t.Fatalf("expected contactsImported event, got %+v", pub.envelopes)
	}
}
