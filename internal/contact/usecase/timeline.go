package usecase

import (
	"fmt"
	"sort"
	"sync"

	contactdomain "rolodex-backend/internal/contact/domain"
	"rolodex-backend/internal/contact/repository"

	"go.uber.org/zap"
)

const defaultTimelineWorkers = 10

// TimelineUpdater appends newly recorded interactions to each affected
// person's timeline document and recomputes their strength. Persons are
// processed in parallel; each person's document is read and written by
// exactly one goroutine, so there is no write contention within a run.
type TimelineUpdater struct {
	persons  repository.PersonRepository
	strength StrengthRecomputer
	logger   *zap.Logger
	workers  int
}

// NewTimelineUpdater creates a new timeline updater instance
func NewTimelineUpdater(persons repository.PersonRepository, strength StrengthRecomputer, workers int, logger *zap.Logger) *TimelineUpdater {
	if workers <= 0 {
		workers = defaultTimelineWorkers
	}
	return &TimelineUpdater{
		persons:  persons,
		strength: strength,
		logger:   logger.Named("timeline"),
		workers:  workers,
	}
}

// Apply groups the batch by person and updates each timeline. Per-person
// failures are logged and skipped; a panic in one person's update is
// contained so the rest of the batch still completes. Once every write has
// finished, strength is recomputed across the owner's entire person set,
// so decay also reaches persons this batch never touched.
func (t *TimelineUpdater) Apply(ownerUserID string, recorded []*contactdomain.Interaction) {
	byPerson := make(map[string][]*contactdomain.Interaction)
	for _, interaction := range recorded {
		byPerson[interaction.PersonID] = append(byPerson[interaction.PersonID], interaction)
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, t.workers)

	for personID, interactions := range byPerson {
		wg.Add(1)
		go func(personID string, interactions []*contactdomain.Interaction) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					t.logger.Error("timeline update panicked",
						zap.String("personId", personID),
						zap.Any("panic", rec))
				}
			}()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := t.updatePerson(personID, interactions); err != nil {
				t.logger.Error("failed to update timeline",
					zap.String("personId", personID),
					zap.Error(err))
			}
		}(personID, interactions)
	}

	wg.Wait()

	if err := t.strength.RecomputeAll(ownerUserID); err != nil {
		t.logger.Error("failed to recompute strengths",
			zap.String("ownerUserId", ownerUserID),
			zap.Error(err))
	}
}

func (t *TimelineUpdater) updatePerson(personID string, interactions []*contactdomain.Interaction) error {
	person, err := t.persons.FindByID(personID)
	if err != nil {
		return err
	}
	if person == nil {
		return fmt.Errorf("person %s not found", personID)
	}

	existing, err := person.TimelineEntries()
	if err != nil {
		return fmt.Errorf("failed to decode timeline: %w", err)
	}

	fresh := buildTimelineEntries(person, interactions)
	if err := person.SetTimelineEntries(append(fresh, existing...)); err != nil {
		return err
	}
	return t.persons.Update(person)
}

// buildTimelineEntries renders interactions as display-ready history lines,
// newest first.
func buildTimelineEntries(person *contactdomain.Person, interactions []*contactdomain.Interaction) []contactdomain.TimelineEntry {
	ordered := make([]*contactdomain.Interaction, len(interactions))
	copy(ordered, interactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.After(ordered[j].OccurredAt)
	})

	entries := make([]contactdomain.TimelineEntry, 0, len(ordered))
	for _, interaction := range ordered {
		entries = append(entries, contactdomain.TimelineEntry{
			Kind:        string(interaction.Type),
			Text:        timelineText(person.FirstName(), interaction.Type),
			DisplayDate: interaction.OccurredAt.Format("Jan 2, 2006"),
			ColorTag:    timelineColor(interaction.Type),
			LinkLabel:   interaction.Subject,
		})
	}
	return entries
}

func timelineText(firstName string, kind contactdomain.InteractionType) string {
	switch kind {
	case contactdomain.InteractionEmailSent:
		return fmt.Sprintf("You emailed %s.", firstName)
	case contactdomain.InteractionEmailReceived:
		return fmt.Sprintf("%s emailed you.", firstName)
	case contactdomain.InteractionMeeting:
		return fmt.Sprintf("You had a meeting with %s.", firstName)
	default:
		return fmt.Sprintf("You connected with %s.", firstName)
	}
}

func timelineColor(kind contactdomain.InteractionType) string {
	switch kind {
	case contactdomain.InteractionEmailSent:
		return "green"
	case contactdomain.InteractionEmailReceived:
		return "blue"
	case contactdomain.InteractionMeeting:
		return "purple"
	default:
		return "gray"
	}
}
