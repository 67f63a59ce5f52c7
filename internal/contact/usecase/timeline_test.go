package usecase

import (
	"testing"
	"time"

	contactdomain "rolodex-backend/internal/contact/domain"

	"go.uber.org/zap"
)

func TestApplyPrependsEntriesNewestFirst(t *testing.T) {
	persons := newFakePersonRepo()
	person := &contactdomain.Person{OwnerUserID: "user-1", Email: "jane@corp.com", Name: "Jane Doe"}
	if err := person.SetTimelineEntries([]contactdomain.TimelineEntry{
		{Kind: "email_sent", Text: "You emailed Jane.", DisplayDate: "Jan 5, 2026"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := persons.Create(person); err != nil {
		t.Fatal(err)
	}

	strength := &noopStrength{}
	updater := NewTimelineUpdater(persons, strength, 2, zap.NewNop())

	updater.Apply("user-1", []*contactdomain.Interaction{
		{
			PersonID:   person.ID,
			Type:       contactdomain.InteractionEmailReceived,
			Subject:    "Re: kickoff",
			OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			PersonID:   person.ID,
			Type:       contactdomain.InteractionMeeting,
			Subject:    "Kickoff",
			OccurredAt: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
		},
	})

	updated, _ := persons.FindByID(person.ID)
	entries, err := updated.TimelineEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Text != "You had a meeting with Jane." {
		t.Errorf("entries[0].Text = %q, want the meeting first", entries[0].Text)
	}
	if entries[0].DisplayDate != "Mar 2, 2026" {
		t.Errorf("entries[0].DisplayDate = %q, want Mar 2, 2026", entries[0].DisplayDate)
	}
	if entries[0].ColorTag != "purple" {
		t.Errorf("entries[0].ColorTag = %q, want purple", entries[0].ColorTag)
	}
	if entries[1].Text != "Jane emailed you." {
		t.Errorf("entries[1].Text = %q, want the received email second", entries[1].Text)
	}
	if entries[1].LinkLabel != "Re: kickoff" {
		t.Errorf("entries[1].LinkLabel = %q, want the subject", entries[1].LinkLabel)
	}
	if entries[2].DisplayDate != "Jan 5, 2026" {
		t.Errorf("entries[2] = %+v, existing history must be preserved below", entries[2])
	}

	if len(strength.owners) != 1 || strength.owners[0] != "user-1" {
		t.Errorf("owners = %v, want one owner-wide recompute after the writes", strength.owners)
	}
}

func TestApplyFallsBackToAddressLocalPart(t *testing.T) {
	persons := newFakePersonRepo()
	person := &contactdomain.Person{OwnerUserID: "user-1", Email: "jane@corp.com"}
	if err := persons.Create(person); err != nil {
		t.Fatal(err)
	}

	updater := NewTimelineUpdater(persons, &noopStrength{}, 1, zap.NewNop())
	updater.Apply("user-1", []*contactdomain.Interaction{{
		PersonID:   person.ID,
		Type:       contactdomain.InteractionEmailSent,
		OccurredAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}})

	updated, _ := persons.FindByID(person.ID)
	entries, _ := updated.TimelineEntries()
	if len(entries) != 1 || entries[0].Text != "You emailed jane." {
		t.Errorf("entries = %+v, want the address local part as the display name", entries)
	}
}

func TestApplySkipsUnknownPersons(t *testing.T) {
	persons := newFakePersonRepo()
	updater := NewTimelineUpdater(persons, &noopStrength{}, 1, zap.NewNop())

	// Must not panic or block.
	updater.Apply("user-1", []*contactdomain.Interaction{{
		PersonID:   "missing",
		Type:       contactdomain.InteractionEmailSent,
		OccurredAt: time.Now(),
	}})
}

func TestRecomputeAllRescoresUntouchedPersons(t *testing.T) {
	persons := newFakePersonRepo()
	interactions := newFakeInteractionRepo()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	active := &contactdomain.Person{OwnerUserID: "user-1", Email: "jane@corp.com"}
	dormant := &contactdomain.Person{OwnerUserID: "user-1", Email: "sam@beta.dev", Strength: 80}
	other := &contactdomain.Person{OwnerUserID: "user-2", Email: "kim@gamma.org", Strength: 50}
	for _, person := range []*contactdomain.Person{active, dormant, other} {
		if err := persons.Create(person); err != nil {
			t.Fatal(err)
		}
	}
	if err := interactions.BatchUpsert([]*contactdomain.Interaction{{
		OwnerUserID: "user-1",
		PersonID:    active.ID,
		NaturalKey:  "m1",
		OccurredAt:  now.AddDate(0, 0, -1),
	}}); err != nil {
		t.Fatal(err)
	}

	recomputer := &strengthRecomputer{persons: persons, interactions: interactions, now: func() time.Time { return now }}
	if err := recomputer.RecomputeAll("user-1"); err != nil {
		t.Fatal(err)
	}

	updated, _ := persons.FindByID(active.ID)
	if updated.Strength <= 0 {
		t.Errorf("active strength = %v, want > 0", updated.Strength)
	}

	// The dormant person had no interaction this run and still decays to zero.
	updated, _ = persons.FindByID(dormant.ID)
	if updated.Strength != 0 {
		t.Errorf("dormant strength = %v, want 0 after the owner-wide pass", updated.Strength)
	}

	// Another owner's persons are out of scope.
	updated, _ = persons.FindByID(other.ID)
	if updated.Strength != 50 {
		t.Errorf("other owner's strength = %v, must not change", updated.Strength)
	}
}

func TestScoreInteractions(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if got := scoreInteractions(nil, now); got != 0 {
		t.Errorf("score with no interactions = %v, want 0", got)
	}

	fresh := []*contactdomain.Interaction{{OccurredAt: now}}
	stale := []*contactdomain.Interaction{{OccurredAt: now.AddDate(-1, 0, 0)}}
	if scoreInteractions(fresh, now) <= scoreInteractions(stale, now) {
		t.Error("a recent interaction must outscore a year-old one")
	}

	var many []*contactdomain.Interaction
	for i := 0; i < 40; i++ {
		many = append(many, &contactdomain.Interaction{OccurredAt: now.AddDate(0, 0, -i)})
	}
	single := []*contactdomain.Interaction{{OccurredAt: now}}
	if scoreInteractions(many, now) <= scoreInteractions(single, now) {
		t.Error("volume must raise the score")
	}
	if got := scoreInteractions(many, now); got > 100 {
		t.Errorf("score = %v, must stay within 0..100", got)
	}
}
