package partner

import (
	"fmt"
	"sync"
	"time"

	"partner-insights/internal/common/logger"
	"partner-insights/internal/common/validation"
	"partner-insights/internal/models"

	"github.com/google/uuid"
)

// Store is the in-memory partner collection. Every mutation re-applies the
// tier policy to the whole population.
type Store struct {
	mu       sync.RWMutex
	partners map[string]models.Partner
	order    []string
	policy   TierPolicy
	now      func() time.Time
	newID    func() string
	logger   logger.Logger
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) StoreOption {
	return func(s *Store) { s.newID = gen }
}

func NewStore(policy TierPolicy, log logger.Logger, opts ...StoreOption) *Store {
	if policy == nil {
		policy = ScoreThresholdPolicy{Threshold: DefaultTopTierThreshold}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Store{
		partners: make(map[string]models.Partner),
		policy:   policy,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   log.WithFields(map[string]interface{}{"component": "partner-store", "tierPolicy": policy.Name()}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Policy() TierPolicy {
	return s.policy
}

// Add creates a partner from a draft. The store assigns the id, today's date
// as contract start and the tier flag.
func (s *Store) Add(draft models.PartnerDraft) (models.Partner, error) {
	if err := validation.ValidateDraft(draft).Err(); err != nil {
		return models.Partner{}, fmt.Errorf("%w: %v", ErrInvalidPartner, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := draft.ToPartner(s.newID(), s.now().UTC().Format(models.ContractDateLayout))
	if _, exists := s.partners[p.ID]; exists {
		return models.Partner{}, fmt.Errorf("%w: %s", ErrDuplicatePartner, p.ID)
	}
	s.insertLocked(p)

	s.logger.Info("Partner added", map[string]interface{}{
		"partnerId": p.ID,
		"segment":   p.Segment,
	})
	return s.partners[p.ID].Clone(), nil
}

// Insert stores a complete record as-is, keeping its id and contract start.
// Used for seeding from a dataset.
func (s *Store) Insert(p models.Partner) error {
	if err := validation.ValidatePartner(p).Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPartner, p.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.partners[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePartner, p.ID)
	}
	s.insertLocked(p.Clone())
	return nil
}

func (s *Store) insertLocked(p models.Partner) {
	s.partners[p.ID] = p
	s.order = append(s.order, p.ID)
	s.reclassifyLocked()
}

// Update replaces a record wholesale. An empty ContractStart keeps the
// stored date.
func (s *Store) Update(p models.Partner) (models.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.partners[p.ID]
	if !ok {
		return models.Partner{}, fmt.Errorf("%w: %s", ErrPartnerNotFound, p.ID)
	}
	if p.ContractStart == "" {
		p.ContractStart = current.ContractStart
	}
	if err := validation.ValidatePartner(p).Err(); err != nil {
		return models.Partner{}, fmt.Errorf("%w: %s: %v", ErrInvalidPartner, p.ID, err)
	}

	s.partners[p.ID] = p.Clone()
	s.reclassifyLocked()

	s.logger.Debug("Partner updated", map[string]interface{}{"partnerId": p.ID})
	return s.partners[p.ID].Clone(), nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.partners[id]; !ok {
		return fmt.Errorf("%w: %s", ErrPartnerNotFound, id)
	}
	delete(s.partners, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.reclassifyLocked()

	s.logger.Info("Partner deleted", map[string]interface{}{"partnerId": id})
	return nil
}

func (s *Store) Get(id string) (models.Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.partners[id]
	if !ok {
		return models.Partner{}, fmt.Errorf("%w: %s", ErrPartnerNotFound, id)
	}
	return p.Clone(), nil
}

// List returns a snapshot in insertion order.
func (s *Store) List() []models.Partner {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Partner, len(s.order))
	for i, id := range s.order {
		out[i] = s.partners[id].Clone()
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) reclassifyLocked() {
	all := make([]models.Partner, len(s.order))
	for i, id := range s.order {
		all[i] = s.partners[id]
	}
	s.policy.Apply(all)
	for _, p := range all {
		s.partners[p.ID] = p
	}
}
