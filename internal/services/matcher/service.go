// -----------------------------------------------------------------------
// Matcher service - retrieval, grouping, scoring, ranking
// -----------------------------------------------------------------------

package matcher

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Service matches one résumé profile against the stored corpus. Retrieval
// failures degrade (time-aware → raw similarity); scoring is per job group
// with the context checked between groups, so a deadline returns whatever is
// already scored instead of nothing.
type Service struct {
	retriever interfaces.RetrieverService
	index     interfaces.VectorIndex
	jobs      interfaces.JobStorage
	matches   interfaces.MatchStorage
	scorer    interfaces.Scorer
	cfg       *common.Config
	logger    arbor.ILogger
}

// NewService wires the matcher. The index is the raw fallback behind the
// time-aware retriever.
func NewService(
	cfg *common.Config,
	retriever interfaces.RetrieverService,
	index interfaces.VectorIndex,
	jobs interfaces.JobStorage,
	matches interfaces.MatchStorage,
	scorer interfaces.Scorer,
	logger arbor.ILogger,
) interfaces.MatcherService {
	return &Service{
		retriever: retriever,
		index:     index,
		jobs:      jobs,
		matches:   matches,
		scorer:    scorer,
		cfg:       cfg,
		logger:    logger,
	}
}

var _ interfaces.MatcherService = (*Service)(nil)

// MatchResume runs the full matching pass for one profile. An empty corpus
// produces an empty bundle with the summary populated, never an error.
func (s *Service) MatchResume(ctx context.Context, profile *models.ResumeProfile, opts interfaces.MatchOptions) (*models.MatchBundle, error) {
	start := time.Now()

	topK := opts.TopK
	if topK <= 0 {
		topK = s.cfg.ResumeMatchingAdvanced.MaxResults
	}
	k := s.cfg.ResumeMatchingAdvanced.DefaultSearchK
	if overfetch := 3 * topK; overfetch < k {
		k = overfetch
	}

	query := opts.Query
	if strings.TrimSpace(query) == "" {
		query = BuildQuery(profile, s.scorer)
	}

	docs, err := s.retrieve(ctx, query, k, opts.Strategy)
	if err != nil {
		return nil, err
	}

	groups, order := groupByJob(docs)
	results, metas := s.scoreGroups(ctx, profile, groups, order)

	threshold := s.cfg.ResumeMatching.MatchingThreshold
	kept := make([]models.MatchResult, 0, len(results))
	for _, r := range results {
		if r.OverallScore >= threshold {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].OverallScore > kept[j].OverallScore
	})
	if len(kept) > topK {
		kept = kept[:topK]
	}

	bundle := &models.MatchBundle{
		Matches:  kept,
		Summary:  buildSummary(results, kept, query, opts.Strategy, start),
		Insights: buildInsights(profile, results, metas),
	}

	if opts.Persist && len(kept) > 0 {
		if _, err := s.matches.SaveMatches(ctx, toStoredMatches(kept)); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist match results")
		}
	}

	s.logger.Info().
		Str("profile", profile.ProfileID).
		Int("candidates", len(results)).
		Int("returned", len(kept)).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("Resume matching completed")
	return bundle, nil
}

// retrieve prefers the time-aware retriever and falls back to raw similarity
// when the re-ranking layer fails outright.
func (s *Service) retrieve(ctx context.Context, query string, k int, strategy string) ([]models.ScoredDocument, error) {
	docs, err := s.retriever.Search(ctx, query, k, nil, strategy)
	if err == nil {
		return docs, nil
	}
	s.logger.Warn().Err(err).Msg("Time-aware retrieval failed, falling back to raw similarity")

	docs, rawErr := s.index.SimilaritySearchWithScore(ctx, query, k, nil)
	if rawErr != nil {
		return nil, rawErr
	}
	return docs, nil
}

// groupByJob buckets documents by their job_id metadata, preserving
// first-seen order. Documents without a job_id carry no scorable identity
// and are dropped.
func groupByJob(docs []models.ScoredDocument) (map[string][]models.ScoredDocument, []string) {
	groups := make(map[string][]models.ScoredDocument)
	var order []string
	for _, doc := range docs {
		jobID := doc.Document.JobID()
		if jobID == "" {
			continue
		}
		if _, ok := groups[jobID]; !ok {
			order = append(order, jobID)
		}
		groups[jobID] = append(groups[jobID], doc)
	}
	return groups, order
}

// scoreGroups scores each candidate job. Soft-deleted and vanished jobs are
// skipped; a context expiry stops scoring and keeps the partial results.
func (s *Service) scoreGroups(ctx context.Context, profile *models.ResumeProfile, groups map[string][]models.ScoredDocument, order []string) ([]models.MatchResult, map[string]*models.JobMetadata) {
	var results []models.MatchResult
	metas := make(map[string]*models.JobMetadata)

	for _, jobID := range order {
		if ctx.Err() != nil {
			s.logger.Warn().
				Str("profile", profile.ProfileID).
				Int("scored", len(results)).
				Msg("Matching deadline reached, returning partial results")
			break
		}

		item, err := s.jobs.GetJobWithDetail(ctx, jobID)
		if err != nil || item == nil || item.Job == nil {
			if err != nil {
				s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Skipping unreadable job")
			}
			continue
		}
		if item.Job.IsDeleted {
			continue
		}

		meta := s.scorer.JobMetadata(item.Job, item.Detail)
		metas[jobID] = meta
		results = append(results, *s.scorer.Score(profile, groups[jobID], meta))
	}
	return results, metas
}

func buildSummary(candidates, kept []models.MatchResult, query, strategy string, start time.Time) models.MatchSummary {
	byPriority := make(map[string]int)
	var total float64
	for _, r := range kept {
		byPriority[r.Priority]++
		total += r.OverallScore
	}
	avg := 0.0
	if len(kept) > 0 {
		avg = total / float64(len(kept))
	}
	return models.MatchSummary{
		TotalCandidates: len(candidates),
		Returned:        len(kept),
		ByPriority:      byPriority,
		AverageScore:    avg,
		ElapsedMS:       time.Since(start).Milliseconds(),
		Strategy:        strategy,
		Query:           query,
	}
}

// toStoredMatches flattens results into the persisted row shape; the full
// result rides along as a JSON blob.
func toStoredMatches(results []models.MatchResult) []*models.ResumeMatch {
	rows := make([]*models.ResumeMatch, 0, len(results))
	for i := range results {
		r := &results[i]
		details, err := json.Marshal(r)
		if err != nil {
			details = nil
		}
		rows = append(rows, &models.ResumeMatch{
			JobID:           r.JobID,
			ResumeProfileID: r.ResumeProfileID,
			MatchScore:      r.OverallScore,
			SemanticScore:   r.Dimensions.SemanticSimilarity,
			SkillsScore:     r.Dimensions.SkillsMatch,
			ExperienceScore: r.Dimensions.ExperienceMatch,
			IndustryScore:   r.Dimensions.IndustryMatch,
			SalaryScore:     r.Dimensions.SalaryMatch,
			PriorityLevel:   r.Priority,
			MatchDetails:    string(details),
			MatchReasons:    strings.Join(r.Analysis.Strengths, "; "),
			CreatedAt:       r.ScoredAt,
			Processed:       true,
		})
	}
	return rows
}
