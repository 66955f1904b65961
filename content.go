package linguastore

import (
	"context"
	"time"
)

// Content is a language learning content record.
//
// Timestamps are Unix nanoseconds. UpdatedAt is nil until the first update.
type Content struct {
	ID               uint64  `json:"id"`
	Text             string  `json:"text"`
	ImageURL         string  `json:"image_url"`
	SoundURL         string  `json:"sound_url"`
	ScentDescription string  `json:"scent_description"`
	CreatedAt        uint64  `json:"created_at"`
	UpdatedAt        *uint64 `json:"updated_at,omitempty"`
}

// ContentPayload holds the caller-supplied fields of a Content record.
// Every field must be valid UTF-8.
type ContentPayload struct {
	Text             string `json:"text"`
	ImageURL         string `json:"image_url"`
	SoundURL         string `json:"sound_url"`
	ScentDescription string `json:"scent_description"`
}

func (p ContentPayload) validate() error {
	return checkUTF8(CollectionContent,
		field{"text", p.Text},
		field{"image_url", p.ImageURL},
		field{"sound_url", p.SoundURL},
		field{"scent_description", p.ScentDescription},
	)
}

// GetContent returns the content record with the given id.
func (s *Store) GetContent(ctx context.Context, id uint64) (Content, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getContent(id)
	s.opts.metricsCollector.RecordRead(CollectionContent, time.Since(start), err)
	return c, err
}

func (s *Store) getContent(id uint64) (Content, error) {
	if err := s.checkOpen(); err != nil {
		return Content{}, err
	}
	return get(s.content, CollectionContent, id)
}

// AddContent stores a new content record. The id and creation time are
// assigned by the store.
//
// A payload that is not valid UTF-8 is rejected with an *InvalidRecordError,
// and one whose record would exceed MaxRecordSize with a
// *RecordTooLargeError. Neither consumes an id.
func (s *Store) AddContent(ctx context.Context, p ContentPayload) (Content, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.addContent(p)
	s.opts.metricsCollector.RecordCreate(CollectionContent, time.Since(start), err)
	s.opts.logger.LogCreate(ctx, CollectionContent, c.ID, err)
	return c, err
}

func (s *Store) addContent(p ContentPayload) (Content, error) {
	if err := s.checkOpen(); err != nil {
		return Content{}, err
	}
	if err := p.validate(); err != nil {
		return Content{}, err
	}

	c := Content{
		ID:               s.ids.Get(),
		Text:             p.Text,
		ImageURL:         p.ImageURL,
		SoundURL:         p.SoundURL,
		ScentDescription: p.ScentDescription,
		CreatedAt:        s.now(),
	}
	if err := s.checkSize(CollectionContent, c); err != nil {
		return Content{}, err
	}

	id, err := s.ids.Allocate()
	if err != nil {
		return Content{}, translateError(CollectionContent, err)
	}
	c.ID = id

	if err := put(s.content, CollectionContent, id, c); err != nil {
		// Give the id back so a failed insert leaves no gap.
		_ = s.ids.Set(id)
		return Content{}, err
	}
	if err := s.sync(); err != nil {
		return Content{}, translateError(CollectionContent, err)
	}
	return c, nil
}

// UpdateContent replaces the mutable fields of a content record and stamps
// UpdatedAt. The id and creation time are preserved; UpdatedAt is never
// earlier than CreatedAt.
func (s *Store) UpdateContent(ctx context.Context, id uint64, p ContentPayload) (Content, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.updateContent(id, p)
	s.opts.metricsCollector.RecordUpdate(CollectionContent, time.Since(start), err)
	s.opts.logger.LogUpdate(ctx, CollectionContent, id, err)
	return c, err
}

func (s *Store) updateContent(id uint64, p ContentPayload) (Content, error) {
	c, err := s.getContent(id)
	if err != nil {
		return Content{}, err
	}
	if err := p.validate(); err != nil {
		return Content{}, err
	}

	c.Text = p.Text
	c.ImageURL = p.ImageURL
	c.SoundURL = p.SoundURL
	c.ScentDescription = p.ScentDescription
	updatedAt := max(s.now(), c.CreatedAt)
	c.UpdatedAt = &updatedAt

	if err := put(s.content, CollectionContent, id, c); err != nil {
		return Content{}, err
	}
	if err := s.sync(); err != nil {
		return Content{}, translateError(CollectionContent, err)
	}
	return c, nil
}

// DeleteContent removes a content record and returns it.
func (s *Store) DeleteContent(ctx context.Context, id uint64) (Content, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.deleteContent(id)
	s.opts.metricsCollector.RecordDelete(CollectionContent, time.Since(start), err)
	s.opts.logger.LogDelete(ctx, CollectionContent, id, err)
	return c, err
}

func (s *Store) deleteContent(id uint64) (Content, error) {
	if err := s.checkOpen(); err != nil {
		return Content{}, err
	}

	c, err := remove(s.content, CollectionContent, id)
	if err != nil {
		return Content{}, err
	}
	if err := s.sync(); err != nil {
		return Content{}, translateError(CollectionContent, err)
	}
	return c, nil
}

// ListContent returns all content records in ascending id order.
func (s *Store) ListContent(ctx context.Context) ([]Content, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.listContent()
	s.opts.metricsCollector.RecordRead(CollectionContent, time.Since(start), err)
	return items, err
}

func (s *Store) listContent() ([]Content, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	items, err := collect(s.content.Iter())
	return items, translateError(CollectionContent, err)
}
