package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"podsumgo/pkg/catalog"
	"podsumgo/pkg/model"
	"podsumgo/pkg/store"
	"podsumgo/pkg/summarizer"
)

type mockCatalog struct {
	searchResult *catalog.SearchResult
	episode      *model.Episode
	best         *catalog.BestPodcasts
	genres       []catalog.Genre
	err          error

	lastSearch catalog.SearchParams
}

func (m *mockCatalog) SearchEpisodes(ctx context.Context, p catalog.SearchParams) (*catalog.SearchResult, error) {
	m.lastSearch = p
	return m.searchResult, m.err
}

func (m *mockCatalog) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	return m.episode, m.err
}

func (m *mockCatalog) GetBestPodcasts(ctx context.Context, p catalog.BestPodcastsParams) (*catalog.BestPodcasts, error) {
	return m.best, m.err
}

func (m *mockCatalog) GetGenres(ctx context.Context) ([]catalog.Genre, error) {
	return m.genres, m.err
}

type mockPipeline struct {
	response summarizer.Response
	// block, when set, holds Summarize until released. Used to test the
	// in-flight guard.
	block chan struct{}

	mu    sync.Mutex
	calls int
}

func (m *mockPipeline) Summarize(ctx context.Context, ep model.Episode, opts model.Options, onProgress summarizer.ProgressFunc) summarizer.Response {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if onProgress != nil {
		onProgress(model.Progress{Stage: model.StageAnalyzing, Message: "Analyzing content quality...", Percent: 10})
	}
	if m.block != nil {
		<-m.block
	}
	return m.response
}

func (m *mockPipeline) EstimateProcessingTime(ep model.Episode) (time.Duration, model.Source) {
	return 5 * time.Second, model.SourceDescription
}

// memoryStore is an in-memory SummaryStore and UsageStore.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]*model.SummaryRecord
	usage   []*store.UsageRecord
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]*model.SummaryRecord)}
}

func (m *memoryStore) SaveSummary(ctx context.Context, rec *model.SummaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	cp := *rec
	m.records[rec.EpisodeID] = &cp
	return nil
}

func (m *memoryStore) GetSummary(ctx context.Context, episodeID string) (*model.SummaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[episodeID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *memoryStore) ListSummaries(ctx context.Context) ([]*model.SummaryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SummaryRecord
	for _, rec := range m.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) DeleteSummary(ctx context.Context, episodeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[episodeID]; !ok {
		return false, nil
	}
	delete(m.records, episodeID)
	return true, nil
}

func (m *memoryStore) RecordUsage(ctx context.Context, rec *store.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage = append(m.usage, rec)
	return nil
}

func (m *memoryStore) GetUsage(ctx context.Context) ([]*store.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*store.UsageRecord(nil), m.usage...), nil
}
