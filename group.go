package linguastore

import (
	"context"
	"slices"
	"time"
)

// StudyGroup is a named group of learners.
type StudyGroup struct {
	ID      uint64   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// StudyGroupPayload holds the caller-supplied fields of a StudyGroup.
// The name and every member must be valid UTF-8.
type StudyGroupPayload struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (p StudyGroupPayload) validate() error {
	if err := checkUTF8(CollectionStudyGroups, field{"name", p.Name}); err != nil {
		return err
	}
	return checkUTF8(CollectionStudyGroups, memberFields(p.Members)...)
}

// CreateStudyGroup stores a new study group. Its id comes from the same
// allocator as content ids.
func (s *Store) CreateStudyGroup(ctx context.Context, p StudyGroupPayload) (StudyGroup, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.createStudyGroup(p)
	s.opts.metricsCollector.RecordCreate(CollectionStudyGroups, time.Since(start), err)
	s.opts.logger.LogCreate(ctx, CollectionStudyGroups, g.ID, err)
	return g, err
}

func (s *Store) createStudyGroup(p StudyGroupPayload) (StudyGroup, error) {
	if err := s.checkOpen(); err != nil {
		return StudyGroup{}, err
	}
	if err := p.validate(); err != nil {
		return StudyGroup{}, err
	}

	g := StudyGroup{
		ID:      s.ids.Get(),
		Name:    p.Name,
		Members: slices.Clone(p.Members),
	}
	if err := s.checkSize(CollectionStudyGroups, g); err != nil {
		return StudyGroup{}, err
	}

	id, err := s.ids.Allocate()
	if err != nil {
		return StudyGroup{}, translateError(CollectionStudyGroups, err)
	}
	g.ID = id

	if err := put(s.groups, CollectionStudyGroups, id, g); err != nil {
		// Give the id back so a failed insert leaves no gap.
		_ = s.ids.Set(id)
		return StudyGroup{}, err
	}
	if err := s.sync(); err != nil {
		return StudyGroup{}, translateError(CollectionStudyGroups, err)
	}
	return g, nil
}

// GetStudyGroup returns the study group with the given id.
func (s *Store) GetStudyGroup(ctx context.Context, id uint64) (StudyGroup, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.getStudyGroup(id)
	s.opts.metricsCollector.RecordRead(CollectionStudyGroups, time.Since(start), err)
	return g, err
}

func (s *Store) getStudyGroup(id uint64) (StudyGroup, error) {
	if err := s.checkOpen(); err != nil {
		return StudyGroup{}, err
	}
	return get(s.groups, CollectionStudyGroups, id)
}

// UpdateStudyGroup replaces the name and members of a study group.
func (s *Store) UpdateStudyGroup(ctx context.Context, id uint64, p StudyGroupPayload) (StudyGroup, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.updateStudyGroup(id, p)
	s.opts.metricsCollector.RecordUpdate(CollectionStudyGroups, time.Since(start), err)
	s.opts.logger.LogUpdate(ctx, CollectionStudyGroups, id, err)
	return g, err
}

func (s *Store) updateStudyGroup(id uint64, p StudyGroupPayload) (StudyGroup, error) {
	g, err := s.getStudyGroup(id)
	if err != nil {
		return StudyGroup{}, err
	}
	if err := p.validate(); err != nil {
		return StudyGroup{}, err
	}

	g.Name = p.Name
	g.Members = slices.Clone(p.Members)

	if err := put(s.groups, CollectionStudyGroups, id, g); err != nil {
		return StudyGroup{}, err
	}
	if err := s.sync(); err != nil {
		return StudyGroup{}, translateError(CollectionStudyGroups, err)
	}
	return g, nil
}

// DeleteStudyGroup removes a study group and returns it.
func (s *Store) DeleteStudyGroup(ctx context.Context, id uint64) (StudyGroup, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.deleteStudyGroup(id)
	s.opts.metricsCollector.RecordDelete(CollectionStudyGroups, time.Since(start), err)
	s.opts.logger.LogDelete(ctx, CollectionStudyGroups, id, err)
	return g, err
}

func (s *Store) deleteStudyGroup(id uint64) (StudyGroup, error) {
	if err := s.checkOpen(); err != nil {
		return StudyGroup{}, err
	}

	g, err := remove(s.groups, CollectionStudyGroups, id)
	if err != nil {
		return StudyGroup{}, err
	}
	if err := s.sync(); err != nil {
		return StudyGroup{}, translateError(CollectionStudyGroups, err)
	}
	return g, nil
}

// ListStudyGroups returns all study groups in ascending id order.
func (s *Store) ListStudyGroups(ctx context.Context) ([]StudyGroup, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		items []StudyGroup
		err   error
	)
	if err = s.checkOpen(); err == nil {
		items, err = collect(s.groups.Iter())
		err = translateError(CollectionStudyGroups, err)
	}
	s.opts.metricsCollector.RecordRead(CollectionStudyGroups, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return items, nil
}
