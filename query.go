package linguastore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/hupe1980/linguastore/internal/omap"
)

// Query names reported to loggers and metrics collectors.
const (
	QuerySearchText  = "search_text"
	QueryFilterScent = "filter_scent"
	QuerySortCreated = "sort_created"
)

func collect[V any](it *omap.Iterator[V]) ([]V, error) {
	return filter(it, nil)
}

// filter drains it, keeping values for which keep returns true.
// A nil keep keeps everything.
func filter[V any](it *omap.Iterator[V], keep func(V) bool) ([]V, error) {
	out := make([]V, 0)
	for it.Next() {
		if v := it.Value(); keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchContentByText returns content whose text contains keyword,
// in ascending id order. Matching is case-sensitive.
func (s *Store) SearchContentByText(ctx context.Context, keyword string) ([]Content, error) {
	return s.queryContent(ctx, QuerySearchText, func(c Content) bool {
		return strings.Contains(c.Text, keyword)
	}, nil)
}

// FilterContentByScent returns content whose scent description contains
// keyword, in ascending id order. Matching is case-sensitive.
func (s *Store) FilterContentByScent(ctx context.Context, keyword string) ([]Content, error) {
	return s.queryContent(ctx, QueryFilterScent, func(c Content) bool {
		return strings.Contains(c.ScentDescription, keyword)
	}, nil)
}

// SortContentByCreationDate returns all content, newest first. Records with
// equal creation times keep ascending id order.
func (s *Store) SortContentByCreationDate(ctx context.Context) ([]Content, error) {
	return s.queryContent(ctx, QuerySortCreated, nil, func(a, b Content) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
}

func (s *Store) queryContent(ctx context.Context, name string, keep func(Content) bool, order func(a, b Content) int) ([]Content, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		items []Content
		err   error
	)
	if err = s.checkOpen(); err == nil {
		items, err = filter(s.content.Iter(), keep)
		err = translateError(CollectionContent, err)
	}
	if err == nil && order != nil {
		slices.SortStableFunc(items, order)
	}

	s.opts.metricsCollector.RecordQuery(name, len(items), time.Since(start), err)
	s.opts.logger.LogQuery(ctx, name, len(items), err)
	if err != nil {
		return nil, err
	}
	return items, nil
}
