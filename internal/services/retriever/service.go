package retriever

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Search strategies.
const (
	StrategyHybrid     = "hybrid"
	StrategyFreshFirst = "fresh_first"
	StrategyBalanced   = "balanced"
)

// overfetchFactor widens the candidate pool before re-ranking so time
// adjustment can promote documents sitting beyond the first k.
const overfetchFactor = 3

// Service blends similarity scores with a piecewise document-age weight.
// Any re-rank failure degrades to the plain similarity order rather than
// surfacing an error to the matcher.
type Service struct {
	index  interfaces.VectorIndex
	config common.TimeAwareConfig
	logger arbor.ILogger
}

var _ interfaces.RetrieverService = (*Service)(nil)

// NewService creates the time-aware retriever.
func NewService(index interfaces.VectorIndex, config common.TimeAwareConfig, logger arbor.ILogger) interfaces.RetrieverService {
	if config.FreshDataDays <= 0 {
		config.FreshDataDays = 7
	}
	if config.FreshDataBoost <= 0 {
		config.FreshDataBoost = 0.2
	}
	if config.TimeDecayFactor <= 0 {
		config.TimeDecayFactor = 0.1
	}
	return &Service{
		index:  index,
		config: config,
		logger: logger,
	}
}

// Search retrieves 3·k candidates, re-ranks them under the strategy, and
// returns the top k.
func (s *Service) Search(ctx context.Context, query string, k int, filters map[string]string, strategy string) ([]models.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}

	raw, err := s.index.SimilaritySearchWithScore(ctx, query, k*overfetchFactor, filters)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	if !s.config.EnableTimeBoost {
		return head(raw, k), nil
	}

	resolved := s.resolveStrategy(strategy)
	reranked, err := s.rerank(raw, resolved, time.Now())
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("strategy", resolved).
			Msg("Re-rank failed, keeping similarity order")
		return head(raw, k), nil
	}
	return head(reranked, k), nil
}

func (s *Service) resolveStrategy(strategy string) string {
	if strategy != "" {
		return strategy
	}
	if s.config.SearchStrategy != "" {
		return s.config.SearchStrategy
	}
	return StrategyHybrid
}

func (s *Service) rerank(raw []models.ScoredDocument, strategy string, now time.Time) ([]models.ScoredDocument, error) {
	boost := s.config.FreshDataBoost
	decay := s.config.TimeDecayFactor
	freshDays := s.config.FreshDataDays

	switch strategy {
	case StrategyHybrid:
		adjusted := make([]models.ScoredDocument, len(raw))
		for i, item := range raw {
			weight, isFresh := timeWeight(&item.Document, now, freshDays)
			item.Score = 0.7*item.Score + 0.3*weight
			if isFresh {
				item.Score += boost
			}
			adjusted[i] = item
		}
		sortByScore(adjusted)
		return adjusted, nil

	case StrategyFreshFirst:
		var fresh, stale []models.ScoredDocument
		for _, item := range raw {
			weight, isFresh := timeWeight(&item.Document, now, freshDays)
			if isFresh {
				item.Score += boost
				fresh = append(fresh, item)
			} else {
				item.Score = item.Score*(1-decay) + weight*decay
				stale = append(stale, item)
			}
		}
		sortByScore(fresh)
		sortByScore(stale)
		return append(fresh, stale...), nil

	case StrategyBalanced:
		adjusted := make([]models.ScoredDocument, len(raw))
		for i, item := range raw {
			weight, _ := timeWeight(&item.Document, now, freshDays)
			item.Score = 0.5*item.Score + 0.5*weight
			adjusted[i] = item
		}
		sortByScore(adjusted)
		return adjusted, nil
	}

	return nil, fmt.Errorf("unknown search strategy %q", strategy)
}

// timeWeight maps document age to (0.1, 1.0]. Fresh documents decay gently
// toward 0.7 over freshDays, then steeper toward 0.4 by day 30, then
// exponentially with a two-year cap. Documents without a parseable
// created_at sit at a neutral 0.5 and never count as fresh.
func timeWeight(doc *models.VectorDocument, now time.Time, freshDays int) (float64, bool) {
	ts, ok := doc.CreatedAt()
	if !ok {
		return 0.5, false
	}

	days := now.Sub(ts).Hours() / 24
	fd := float64(freshDays)

	var weight float64
	switch {
	case days <= 0:
		weight = 1.0
	case days <= fd:
		weight = 1.0 - 0.3*(days/fd)
	case days <= 30:
		weight = 0.7 - 0.3*((days-fd)/(30-fd))
	default:
		weight = math.Max(0.1, 0.4*math.Exp(-0.5*math.Min(days/365, 2.0)))
	}
	return weight, days >= 0 && days <= fd
}

func sortByScore(items []models.ScoredDocument) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

func head(items []models.ScoredDocument, k int) []models.ScoredDocument {
	if len(items) > k {
		return items[:k]
	}
	return items
}
