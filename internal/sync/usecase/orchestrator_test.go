package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	contactdomain "rolodex-backend/internal/contact/domain"
	contactusecase "rolodex-backend/internal/contact/usecase"
	integrationdomain "rolodex-backend/internal/integration/domain"
	syncdomain "rolodex-backend/internal/sync/domain"
	"rolodex-backend/pkg/classify"

	"go.uber.org/zap"
)

type fakeIntegrationRepo struct {
	mu   sync.Mutex
	rows map[string]*integrationdomain.Integration
}

func newFakeIntegrationRepo(rows ...*integrationdomain.Integration) *fakeIntegrationRepo {
	repo := &fakeIntegrationRepo{rows: make(map[string]*integrationdomain.Integration)}
	for _, row := range rows {
		clone := *row
		repo.rows[row.ID] = &clone
	}
	return repo
}

func (f *fakeIntegrationRepo) Create(integration *integrationdomain.Integration) error {
	return f.Update(integration)
}

func (f *fakeIntegrationRepo) Update(integration *integrationdomain.Integration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *integration
	f.rows[integration.ID] = &clone
	return nil
}

func (f *fakeIntegrationRepo) FindByID(id string) (*integrationdomain.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	clone := *row
	return &clone, nil
}

func (f *fakeIntegrationRepo) ListByUser(userID string) ([]*integrationdomain.Integration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*integrationdomain.Integration
	for _, row := range f.rows {
		if row.UserID == userID {
			clone := *row
			out = append(out, &clone)
		}
	}
	return out, nil
}

type fakePersonRepo struct {
	mu      sync.Mutex
	persons map[string]*contactdomain.Person
	nextID  int
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{persons: make(map[string]*contactdomain.Person)}
}

func (f *fakePersonRepo) Create(person *contactdomain.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	person.ID = fmt.Sprintf("person-%d", f.nextID)
	clone := *person
	f.persons[person.ID] = &clone
	return nil
}

func (f *fakePersonRepo) Update(person *contactdomain.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *person
	f.persons[person.ID] = &clone
	return nil
}

func (f *fakePersonRepo) FindByID(id string) (*contactdomain.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	person, ok := f.persons[id]
	if !ok {
		return nil, nil
	}
	clone := *person
	return &clone, nil
}

func (f *fakePersonRepo) FindByOwnerAndEmail(ownerUserID, email string) (*contactdomain.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, person := range f.persons {
		if person.OwnerUserID == ownerUserID && person.Email == contactdomain.NormalizeEmail(email) {
			clone := *person
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakePersonRepo) ListByOwner(ownerUserID string, _ string, _, _ int) ([]*contactdomain.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*contactdomain.Person
	for _, person := range f.persons {
		if person.OwnerUserID == ownerUserID {
			clone := *person
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakePersonRepo) CountByOwner(ownerUserID string) (int64, error) {
	persons, _ := f.ListByOwner(ownerUserID, "", 0, 0)
	return int64(len(persons)), nil
}

type fakeInteractionRepo struct {
	mu   sync.Mutex
	rows map[string]*contactdomain.Interaction
}

func newFakeInteractionRepo() *fakeInteractionRepo {
	return &fakeInteractionRepo{rows: make(map[string]*contactdomain.Interaction)}
}

func (f *fakeInteractionRepo) BatchUpsert(interactions []*contactdomain.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, interaction := range interactions {
		key := interaction.OwnerUserID + "|" + interaction.PersonID + "|" + interaction.NaturalKey
		if _, exists := f.rows[key]; exists {
			continue
		}
		clone := *interaction
		f.rows[key] = &clone
	}
	return nil
}

func (f *fakeInteractionRepo) ListByOwnerAndPerson(ownerUserID, personID string) ([]*contactdomain.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*contactdomain.Interaction
	for _, interaction := range f.rows {
		if interaction.OwnerUserID == ownerUserID && interaction.PersonID == personID {
			clone := *interaction
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeInteractionRepo) CountByOwner(ownerUserID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, interaction := range f.rows {
		if interaction.OwnerUserID == ownerUserID {
			count++
		}
	}
	return count, nil
}

// stubFactory hands back whatever sources the test wired up.
type stubFactory struct {
	sources *Sources
	err     error
}

func (s *stubFactory) Sources(_ context.Context, integration *integrationdomain.Integration, mock bool) (*Sources, error) {
	if s.err != nil {
		return nil, s.err
	}
	if mock {
		return fixtureSources(integration.EmailAddress), nil
	}
	return s.sources, nil
}

type throttledMessageSource struct {
	firstPage  []*syncdomain.Message
	retryAfter time.Duration
}

func (s *throttledMessageSource) ListMessages(_ context.Context, _ *time.Time, pageToken string, _ int64) (*syncdomain.MessagePage, error) {
	if pageToken == "" {
		return &syncdomain.MessagePage{Messages: s.firstPage, NextPageToken: "p2"}, nil
	}
	return nil, &syncdomain.RateLimitError{RetryAfter: s.retryAfter}
}

type singlePageMessageSource struct{ messages []*syncdomain.Message }

func (s *singlePageMessageSource) ListMessages(context.Context, *time.Time, string, int64) (*syncdomain.MessagePage, error) {
	return &syncdomain.MessagePage{Messages: s.messages}, nil
}

type stubEventSource struct{ events []*syncdomain.Event }

func (s *stubEventSource) Calendars(context.Context) ([]syncdomain.Calendar, error) {
	return []syncdomain.Calendar{{ID: "primary", Primary: true}}, nil
}

func (s *stubEventSource) ListEvents(context.Context, string, *time.Time, string, int64) (*syncdomain.EventPage, error) {
	return &syncdomain.EventPage{Events: s.events}, nil
}

type failingMessageSource struct{ err error }

func (s *failingMessageSource) ListMessages(context.Context, *time.Time, string, int64) (*syncdomain.MessagePage, error) {
	return nil, s.err
}

func testOrchestrator(integrations *fakeIntegrationRepo, factory SourceFactory, persons *fakePersonRepo, interactions *fakeInteractionRepo) *Orchestrator {
	logger := zap.NewNop()
	resolver := contactusecase.NewResolver(classify.NewHeuristicClassifier(), logger)
	recorder := contactusecase.NewRecorder(persons, interactions, logger)
	strength := contactusecase.NewStrengthRecomputer(persons, interactions)
	timeline := contactusecase.NewTimelineUpdater(persons, strength, 2, logger)
	return NewOrchestrator(integrations, factory, resolver, recorder, timeline, 500, 100, logger)
}

func googleIntegration() *integrationdomain.Integration {
	return &integrationdomain.Integration{
		ID:           "grant-1",
		UserID:       "user-1",
		Provider:     integrationdomain.ProviderGoogle,
		EmailAddress: "me@example.com",
		Status:       integrationdomain.StatusActive,
	}
}

func TestSyncFullRunWithFixtureData(t *testing.T) {
	integrations := newFakeIntegrationRepo(googleIntegration())
	persons := newFakePersonRepo()
	interactions := newFakeInteractionRepo()
	orch := testOrchestrator(integrations, &stubFactory{}, persons, interactions)

	result, err := orch.Sync(context.Background(), &syncdomain.SyncJob{GrantID: "grant-1", UserID: "user-1", MockMode: true})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if result.Incremental {
		t.Error("first run must be a full sync")
	}
	if result.RateLimited {
		t.Error("fixture run must not be rate limited")
	}

	// Only Alex survives resolution: the newsletter sender is automated and
	// the stranger was never written to.
	count, _ := persons.CountByOwner("user-1")
	if count != 1 {
		t.Fatalf("persons = %d, want 1", count)
	}
	alex, _ := persons.FindByOwnerAndEmail("user-1", "alex@acme.io")
	if alex == nil {
		t.Fatal("alex@acme.io was not persisted")
	}
	if alex.Name != "Alex Chen" {
		t.Errorf("name = %q, want Alex Chen", alex.Name)
	}
	if alex.Strength <= 0 {
		t.Errorf("strength = %v, want > 0 after recompute", alex.Strength)
	}

	recorded, _ := interactions.ListByOwnerAndPerson("user-1", alex.ID)
	if len(recorded) != 3 {
		t.Errorf("interactions = %d, want sent + received + meeting", len(recorded))
	}

	entries, _ := alex.TimelineEntries()
	if len(entries) != 3 {
		t.Errorf("timeline entries = %d, want 3", len(entries))
	}

	saved, _ := integrations.FindByID("grant-1")
	if saved.LastSyncAt == nil || saved.FirstSyncAt == nil {
		t.Error("clean run must set both sync watermarks")
	}
	if saved.Status != integrationdomain.StatusActive {
		t.Errorf("status = %q, want active", saved.Status)
	}
}

func TestSyncIsIdempotentAcrossRuns(t *testing.T) {
	integrations := newFakeIntegrationRepo(googleIntegration())
	persons := newFakePersonRepo()
	interactions := newFakeInteractionRepo()
	orch := testOrchestrator(integrations, &stubFactory{}, persons, interactions)

	job := &syncdomain.SyncJob{GrantID: "grant-1", UserID: "user-1", MockMode: true}
	if _, err := orch.Sync(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	// Clear the watermark so the second run re-covers the same window.
	saved, _ := integrations.FindByID("grant-1")
	saved.LastSyncAt = nil
	if err := integrations.Update(saved); err != nil {
		t.Fatal(err)
	}
	if _, err := orch.Sync(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	count, _ := interactions.CountByOwner("user-1")
	if count != 3 {
		t.Errorf("interactions = %d, replay must not duplicate rows", count)
	}
}

func TestSyncTimelineStaysStageGrouped(t *testing.T) {
	integrations := newFakeIntegrationRepo(googleIntegration())
	persons := newFakePersonRepo()
	interactions := newFakeInteractionRepo()

	emailAt := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	meetingAt := emailAt.AddDate(0, 0, -3)

	factory := &stubFactory{sources: &Sources{
		Messages: &singlePageMessageSource{messages: []*syncdomain.Message{{
			ID:      "m1",
			Subject: "Plans",
			From:    syncdomain.Address{Email: "me@example.com"},
			To:      []syncdomain.Address{{Email: "bob@corp.com", Name: "Bob Ray"}},
			Date:    emailAt,
			Sent:    true,
		}}},
		Events: &stubEventSource{events: []*syncdomain.Event{{
			ID:        "evt-1",
			Title:     "Intro call",
			StartsAt:  meetingAt,
			Organizer: syncdomain.Address{Email: "bob@corp.com", Name: "Bob Ray"},
		}}},
	}}
	orch := testOrchestrator(integrations, factory, persons, interactions)

	if _, err := orch.Sync(context.Background(), &syncdomain.SyncJob{GrantID: "grant-1", UserID: "user-1"}); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	bob, _ := persons.FindByOwnerAndEmail("user-1", "bob@corp.com")
	if bob == nil {
		t.Fatal("bob@corp.com was not persisted")
	}
	entries, err := bob.TimelineEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want the email and the meeting", len(entries))
	}

	// The calendar stage runs after the email stage and prepends its batch,
	// so the meeting sits on top even though it happened before the email.
	if entries[0].Kind != string(contactdomain.InteractionMeeting) {
		t.Errorf("entries[0].Kind = %q, want the meeting on top", entries[0].Kind)
	}
	if entries[1].Kind != string(contactdomain.InteractionEmailSent) {
		t.Errorf("entries[1].Kind = %q, want the email below the calendar batch", entries[1].Kind)
	}
}

func TestSyncThrottledRunKeepsPartialAndHoldsWatermark(t *testing.T) {
	integrations := newFakeIntegrationRepo(googleIntegration())
	persons := newFakePersonRepo()
	interactions := newFakeInteractionRepo()

	source := &throttledMessageSource{
		firstPage: []*syncdomain.Message{{
			ID:      "m1",
			Subject: "Hello",
			From:    syncdomain.Address{Email: "me@example.com"},
			To:      []syncdomain.Address{{Email: "jane@corp.com", Name: "Jane Doe"}},
			Date:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			Sent:    true,
		}},
		retryAfter: 45 * time.Second,
	}
	factory := &stubFactory{sources: &Sources{Messages: source}}
	orch := testOrchestrator(integrations, factory, persons, interactions)

	result, err := orch.Sync(context.Background(), &syncdomain.SyncJob{GrantID: "grant-1", UserID: "user-1"})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !result.RateLimited || result.RetryAfter != 45*time.Second {
		t.Errorf("result = %+v, want rate limited with the provider hint", result)
	}

	// The partial batch still lands.
	jane, _ := persons.FindByOwnerAndEmail("user-1", "jane@corp.com")
	if jane == nil {
		t.Error("partial batch must still be persisted")
	}

	// But the watermark must not move, so the retry re-covers the window.
	saved, _ := integrations.FindByID("grant-1")
	if saved.LastSyncAt != nil || saved.FirstSyncAt != nil {
		t.Error("throttled run must not advance the sync watermarks")
	}
	if saved.Status != integrationdomain.StatusActive {
		t.Errorf("status = %q, throttling is not an integration error", saved.Status)
	}
}

func TestSyncUnknownIntegration(t *testing.T) {
	orch := testOrchestrator(newFakeIntegrationRepo(), &stubFactory{}, newFakePersonRepo(), newFakeInteractionRepo())

	_, err := orch.Sync(context.Background(), &syncdomain.SyncJob{GrantID: "missing", UserID: "user-1"})
	if !errors.Is(err, syncdomain.ErrIntegrationNotFound) {
		t.Errorf("err = %v, want ErrIntegrationNotFound", err)
	}
}

func TestSyncHardFailureMarksIntegration(t *testing.T) {
	integrations := newFakeIntegrationRepo(googleIntegration())
	factory := &stubFactory{sources: &Sources{
		Messages: &failingMessageSource{err: syncdomain.ErrGrantRevoked},
	}}
	orch := testOrchestrator(integrations, factory, newFakePersonRepo(), newFakeInteractionRepo())

	_, err := orch.Sync(context.Background(), &syncdomain.SyncJob{GrantID: "grant-1", UserID: "user-1"})
	if !errors.Is(err, syncdomain.ErrGrantRevoked) {
		t.Fatalf("err = %v, want ErrGrantRevoked", err)
	}

	saved, _ := integrations.FindByID("grant-1")
	if saved.Status != integrationdomain.StatusError {
		t.Errorf("status = %q, want error", saved.Status)
	}
	if saved.SyncError == "" {
		t.Error("sync error message must be recorded")
	}
}

func TestSyncIncrementalUsesWatermark(t *testing.T) {
	integration := googleIntegration()
	watermark := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	integration.LastSyncAt = &watermark
	first := watermark.AddDate(0, -1, 0)
	integration.FirstSyncAt = &first

	integrations := newFakeIntegrationRepo(integration)
	persons := newFakePersonRepo()
	orch := testOrchestrator(integrations, &stubFactory{}, persons, newFakeInteractionRepo())

	result, err := orch.Sync(context.Background(), &syncdomain.SyncJob{GrantID: "grant-1", UserID: "user-1", MockMode: true})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Incremental {
		t.Error("run with a watermark must be incremental")
	}

	// Fixture messages at or before the watermark are filtered out, so only
	// the later traffic remains and the sent kickoff is gone. Without a sent
	// message nothing passes the outbound gate.
	count, _ := persons.CountByOwner("user-1")
	if count != 1 {
		t.Errorf("persons = %d, want only the calendar participant", count)
	}
	alex, _ := persons.FindByOwnerAndEmail("user-1", "alex@acme.io")
	if alex == nil {
		t.Fatal("alex@acme.io should still arrive via the calendar stage")
	}

	saved, _ := integrations.FindByID("grant-1")
	if !saved.FirstSyncAt.Equal(first) {
		t.Error("FirstSyncAt must never move once set")
	}
	if !saved.LastSyncAt.After(watermark) {
		t.Error("clean incremental run must advance LastSyncAt")
	}
}
