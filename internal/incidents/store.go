package incidents

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"microsoc/pkg/models"
)

// ErrNotFound is returned when a resolve targets an unknown incident id.
var ErrNotFound = errors.New("incident not found")

// Store holds incident lifecycle state. Incidents are never deleted; the
// only mutation is resolution. All reads return copies.
type Store struct {
	mu         sync.Mutex
	byID       map[string]*models.Incident
	order      []string          // creation order
	openByDesc map[string]string // description -> open incident id
}

// NewStore creates an empty incident store.
func NewStore() *Store {
	return &Store{
		byID:       make(map[string]*models.Incident),
		openByDesc: make(map[string]string),
	}
}

// OpenIfAbsent creates a new open incident unless an unresolved incident
// with the same description already exists. The existence check and insert
// run under one lock, so two concurrent escalations of the same condition
// can never both create an incident.
func (s *Store) OpenIfAbsent(description, eventID string, now time.Time) (models.Incident, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.openByDesc[description]; ok {
		return *s.byID[id], false
	}

	inc := &models.Incident{
		ID:          uuid.NewString(),
		EventID:     eventID,
		Description: description,
		Status:      models.StatusOpen,
		CreatedAt:   now,
	}
	s.byID[inc.ID] = inc
	s.order = append(s.order, inc.ID)
	s.openByDesc[description] = inc.ID
	return *inc, true
}

// Resolve marks an incident resolved by an operator. Resolving an already
// resolved incident is an idempotent success: the first resolver wins and
// attribution is never rewritten.
func (s *Store) Resolve(id, operatorID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	if inc.Status == models.StatusResolved {
		return nil
	}

	resolvedAt := now
	inc.Status = models.StatusResolved
	inc.ResolvedBy = operatorID
	inc.ResolvedAt = &resolvedAt
	delete(s.openByDesc, inc.Description)
	return nil
}

// List returns all incidents ordered by creation time, descending.
func (s *Store) List() []models.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Incident, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.byID[s.order[i]])
	}
	return out
}

// ListOpen returns unresolved incidents ordered by creation time, descending.
func (s *Store) ListOpen() []models.Incident {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Incident, 0, len(s.openByDesc))
	for i := len(s.order) - 1; i >= 0; i-- {
		inc := s.byID[s.order[i]]
		if inc.Status != models.StatusResolved {
			out = append(out, *inc)
		}
	}
	return out
}

// OpenCount returns the number of unresolved incidents.
func (s *Store) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.openByDesc)
}

// ResolutionCounts groups resolved incidents by resolving operator.
// Incidents without a recorded resolver are excluded.
func (s *Store) ResolutionCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int)
	for _, inc := range s.byID {
		if inc.Status != models.StatusResolved || inc.ResolvedBy == "" {
			continue
		}
		counts[inc.ResolvedBy]++
	}
	return counts
}

// ResolvedOperatorIDs returns operator ids with at least one resolution,
// sorted for stable output.
func (s *Store) ResolvedOperatorIDs() []string {
	counts := s.ResolutionCounts()
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
