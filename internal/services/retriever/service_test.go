package retriever

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

type fakeIndex struct {
	results []models.ScoredDocument
	err     error
	gotK    int
}

func (f *fakeIndex) SimilaritySearchWithScore(ctx context.Context, query string, k int, filter map[string]string) ([]models.ScoredDocument, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > k {
		return f.results[:k], nil
	}
	return f.results, nil
}

func (f *fakeIndex) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]*models.VectorDocument, error) {
	return nil, nil
}

func (f *fakeIndex) AddDocuments(ctx context.Context, docs []*models.VectorDocument, jobID string) ([]string, error) {
	return nil, nil
}

func (f *fakeIndex) DeleteDocuments(ctx context.Context, jobID string) (bool, error) { return false, nil }
func (f *fakeIndex) UpdateDocumentMetadata(ctx context.Context, docID string, metadata map[string]string) (bool, error) {
	return false, nil
}
func (f *fakeIndex) CollectionStats(ctx context.Context) (*models.VectorStats, error) {
	return nil, nil
}
func (f *fakeIndex) Backup(ctx context.Context, dir string) (string, error) { return "", nil }
func (f *fakeIndex) IndexPendingJobs(ctx context.Context, batchSize int) (int, error) {
	return 0, nil
}

var _ interfaces.VectorIndex = (*fakeIndex)(nil)

func agedDoc(id string, score float64, age time.Duration) models.ScoredDocument {
	return models.ScoredDocument{
		Document: models.VectorDocument{
			ID: id,
			Metadata: map[string]string{
				models.MetaCreatedAt: time.Now().Add(-age).Format(time.RFC3339),
			},
		},
		Score: score,
	}
}

func timelessDoc(id string, score float64) models.ScoredDocument {
	return models.ScoredDocument{
		Document: models.VectorDocument{ID: id, Metadata: map[string]string{}},
		Score:    score,
	}
}

func newTestRetriever(index *fakeIndex, strategy string) interfaces.RetrieverService {
	return NewService(index, common.TimeAwareConfig{
		EnableTimeBoost: true,
		FreshDataBoost:  0.2,
		FreshDataDays:   7,
		TimeDecayFactor: 0.1,
		SearchStrategy:  strategy,
	}, arbor.NewLogger())
}

func ids(docs []models.ScoredDocument) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Document.ID
	}
	return out
}

func day(n float64) time.Duration {
	return time.Duration(n * 24 * float64(time.Hour))
}

func TestTimeWeight(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	at := func(age time.Duration) *models.VectorDocument {
		return &models.VectorDocument{
			Metadata: map[string]string{models.MetaCreatedAt: now.Add(-age).Format(time.RFC3339)},
		}
	}

	tests := []struct {
		name      string
		age       time.Duration
		want      float64
		wantFresh bool
	}{
		{"future timestamp", -day(2), 1.0, false},
		{"brand new", 0, 1.0, true},
		{"mid fresh window", day(3.5), 0.85, true},
		{"fresh boundary", day(7), 0.7, true},
		{"mid decay window", day(18.5), 0.55, false},
		{"thirty days", day(30), 0.4, false},
		{"hundred days", day(100), 0.4 * 0.87197, false},
		{"two year cap", day(1000), 0.4 * 0.36788, false},
		{"far beyond cap", day(5000), 0.4 * 0.36788, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weight, fresh := timeWeight(at(tt.age), now, 7)
			assert.InDelta(t, tt.want, weight, 1e-3)
			assert.Equal(t, tt.wantFresh, fresh)
		})
	}

	weight, fresh := timeWeight(&models.VectorDocument{}, now, 7)
	assert.Equal(t, 0.5, weight, "missing timestamp is neutral")
	assert.False(t, fresh)
}

func TestSearchHybridPromotesFreshDocs(t *testing.T) {
	index := &fakeIndex{results: []models.ScoredDocument{
		agedDoc("stale_high_sim", 0.90, day(60)),
		agedDoc("fresh_lower_sim", 0.75, day(1)),
	}}
	svc := newTestRetriever(index, "")

	results, err := svc.Search(context.Background(), "golang 后端", 2, nil, StrategyHybrid)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// 0.7·0.75 + 0.3·timeWeight(1d) + 0.2 boost outranks 0.7·0.90 + 0.3·timeWeight(60d).
	assert.Equal(t, []string{"fresh_lower_sim", "stale_high_sim"}, ids(results))
	assert.Greater(t, results[0].Score, 1.0, "fresh boost can push past 1")
	assert.InDelta(t, 0.7405, results[1].Score, 1e-2)
}

func TestSearchFreshFirstPartitions(t *testing.T) {
	index := &fakeIndex{results: []models.ScoredDocument{
		agedDoc("stale_high_sim", 0.95, day(40)),
		agedDoc("fresh_high", 0.60, day(1)),
		agedDoc("fresh_low", 0.30, day(2)),
	}}
	svc := newTestRetriever(index, "")

	results, err := svc.Search(context.Background(), "query", 3, nil, StrategyFreshFirst)
	require.NoError(t, err)

	// Every fresh document precedes every stale one, regardless of score.
	assert.Equal(t, []string{"fresh_high", "fresh_low", "stale_high_sim"}, ids(results))
	assert.InDelta(t, 0.80, results[0].Score, 1e-6)
	assert.InDelta(t, 0.50, results[1].Score, 1e-6)
	// Stale: 0.95·0.9 + timeWeight(40d)·0.1.
	assert.InDelta(t, 0.8929, results[2].Score, 1e-2)
}

func TestSearchBalancedWeighsTimeEvenly(t *testing.T) {
	index := &fakeIndex{results: []models.ScoredDocument{
		agedDoc("older", 0.80, day(30)),
		agedDoc("newer", 0.55, day(0)),
	}}
	svc := newTestRetriever(index, "")

	results, err := svc.Search(context.Background(), "query", 2, nil, StrategyBalanced)
	require.NoError(t, err)

	// 0.5·0.55 + 0.5·1.0 = 0.775 beats 0.5·0.80 + 0.5·0.4 = 0.60.
	assert.Equal(t, []string{"newer", "older"}, ids(results))
	assert.InDelta(t, 0.775, results[0].Score, 1e-2)
	assert.InDelta(t, 0.600, results[1].Score, 1e-2)
}

func TestSearchMissingTimestampStaysNeutral(t *testing.T) {
	index := &fakeIndex{results: []models.ScoredDocument{
		timelessDoc("no_timestamp", 0.9),
		agedDoc("dated", 0.9, day(3.5)),
	}}
	svc := newTestRetriever(index, "")

	results, err := svc.Search(context.Background(), "query", 2, nil, StrategyBalanced)
	require.NoError(t, err)

	assert.Equal(t, []string{"dated", "no_timestamp"}, ids(results))
	assert.InDelta(t, 0.70, results[1].Score, 1e-6, "0.5·0.9 + 0.5·0.5")
}

func TestSearchUnknownStrategyFallsBackToSimilarityOrder(t *testing.T) {
	index := &fakeIndex{results: []models.ScoredDocument{
		agedDoc("first", 0.9, day(60)),
		agedDoc("second", 0.8, day(1)),
		agedDoc("third", 0.7, day(1)),
	}}
	svc := newTestRetriever(index, "")

	results, err := svc.Search(context.Background(), "query", 2, nil, "bogus")
	require.NoError(t, err, "re-rank failure degrades, never errors")
	assert.Equal(t, []string{"first", "second"}, ids(results))
}

func TestSearchDisabledTimeBoostKeepsSimilarityOrder(t *testing.T) {
	index := &fakeIndex{results: []models.ScoredDocument{
		agedDoc("stale_high_sim", 0.9, day(60)),
		agedDoc("fresh_lower_sim", 0.8, day(1)),
	}}
	svc := NewService(index, common.TimeAwareConfig{EnableTimeBoost: false}, arbor.NewLogger())

	results, err := svc.Search(context.Background(), "query", 2, nil, StrategyHybrid)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale_high_sim", "fresh_lower_sim"}, ids(results))
	assert.InDelta(t, 0.9, results[0].Score, 1e-9, "scores pass through untouched")
}

func TestSearchOverfetchesThreeTimesK(t *testing.T) {
	var results []models.ScoredDocument
	for i := 0; i < 20; i++ {
		results = append(results, agedDoc(fmt.Sprintf("doc_%02d", i), 1.0-float64(i)*0.01, day(float64(i))))
	}
	index := &fakeIndex{results: results}
	svc := newTestRetriever(index, "")

	got, err := svc.Search(context.Background(), "query", 4, nil, StrategyBalanced)
	require.NoError(t, err)
	assert.Equal(t, 12, index.gotK, "asks the store for 3·k candidates")
	assert.Len(t, got, 4)
}

func TestSearchDefaultStrategyFromConfig(t *testing.T) {
	index := &fakeIndex{results: []models.ScoredDocument{
		agedDoc("stale_high_sim", 0.95, day(40)),
		agedDoc("fresh_low", 0.30, day(1)),
	}}
	svc := newTestRetriever(index, StrategyFreshFirst)

	results, err := svc.Search(context.Background(), "query", 2, nil, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh_low", "stale_high_sim"}, ids(results),
		"empty strategy resolves to the configured fresh_first")
}

func TestSearchPropagatesIndexError(t *testing.T) {
	index := &fakeIndex{err: errors.New("store offline")}
	svc := newTestRetriever(index, "")

	_, err := svc.Search(context.Background(), "query", 3, nil, "")
	assert.Error(t, err)
}

func TestSearchZeroK(t *testing.T) {
	index := &fakeIndex{}
	svc := newTestRetriever(index, "")

	results, err := svc.Search(context.Background(), "query", 0, nil, "")
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, index.gotK, "store is never consulted")
}
