package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	contactdomain "rolodex-backend/internal/contact/domain"
	"rolodex-backend/pkg/classify"
)

// stubClassifier flags any address whose local part starts with one of the
// given prefixes.
type stubClassifier struct {
	automatedPrefixes []string
}

func (s *stubClassifier) Classify(_ context.Context, email, _ string, _ *classify.Metadata) bool {
	for _, prefix := range s.automatedPrefixes {
		if strings.HasPrefix(email, prefix) {
			return true
		}
	}
	return false
}

type fakePersonRepo struct {
	mu      sync.Mutex
	persons map[string]*contactdomain.Person
	nextID  int

	failCreateFor map[string]bool
}

func newFakePersonRepo() *fakePersonRepo {
	return &fakePersonRepo{
		persons:       make(map[string]*contactdomain.Person),
		failCreateFor: make(map[string]bool),
	}
}

func (f *fakePersonRepo) Create(person *contactdomain.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateFor[person.Email] {
		return fmt.Errorf("create failed for %s", person.Email)
	}
	f.nextID++
	person.ID = fmt.Sprintf("person-%d", f.nextID)
	clone := *person
	f.persons[person.ID] = &clone
	return nil
}

func (f *fakePersonRepo) Update(person *contactdomain.Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.persons[person.ID]; !ok {
		return fmt.Errorf("person %s not found", person.ID)
	}
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

func (f *fakeInteractionRepo) key(i *contactdomain.Interaction) string {
	return i.OwnerUserID + "|" + i.PersonID + "|" + i.NaturalKey
}

func (f *fakeInteractionRepo) BatchUpsert(interactions []*contactdomain.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, interaction := range interactions {
		key := f.key(interaction)
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

type noopStrength struct {
	mu         sync.Mutex
	recomputed []string
	owners     []string
}

func (n *noopStrength) Recompute(_, personID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recomputed = append(n.recomputed, personID)
	return nil
}

func (n *noopStrength) RecomputeAll(ownerUserID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.owners = append(n.owners, ownerUserID)
	return nil
}
