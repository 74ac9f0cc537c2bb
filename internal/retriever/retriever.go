// Package retriever turns vector indexes into query-only retrievers and
// fuses several of them into one ranking.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"paper-review-rag/internal/models"
)

const (
	FusionScore = "score"
	FusionRRF   = "rrf"

	// rrfConstant is the rank offset of reciprocal rank fusion.
	rrfConstant = 60
)

// Retriever returns ranked chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error)
}

// Index is the subset of a vector index a retriever needs.
type Index interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.ScoredChunk, error)
}

// Single serves one index directly with a fixed k.
type Single struct {
	index Index
	k     int
}

func NewSingle(index Index, k int) *Single {
	return &Single{index: index, k: k}
}

func (s *Single) Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error) {
	return s.index.Retrieve(ctx, query, s.k)
}

// Member is one weighted retriever of an Ensemble.
type Member struct {
	Name      string
	Retriever Retriever
	Weight    float64
}

// Ensemble merges the output of its members by weighted fusion.
type Ensemble struct {
	members []Member
	fusion  string
}

// NewEnsemble requires at least one member. fusion is FusionScore (weighted
// similarity) or FusionRRF (weighted reciprocal rank).
func NewEnsemble(members []Member, fusion string) (*Ensemble, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("ensemble needs at least one retriever")
	}
	switch fusion {
	case FusionScore, FusionRRF:
	case "":
		fusion = FusionScore
	default:
		return nil, fmt.Errorf("unsupported fusion %q", fusion)
	}
	for _, m := range members {
		if m.Retriever == nil {
			return nil, fmt.Errorf("ensemble member %q has no retriever", m.Name)
		}
		if m.Weight < 0 {
			return nil, fmt.Errorf("ensemble member %q has negative weight %v", m.Name, m.Weight)
		}
	}
	return &Ensemble{members: members, fusion: fusion}, nil
}

func (e *Ensemble) Members() []Member {
	return append([]Member(nil), e.members...)
}

// Retrieve queries every member. A lone member's output is returned as is;
// otherwise results are fused and sorted by combined score, ties going to the
// better underlying rank and then to the earlier member.
func (e *Ensemble) Retrieve(ctx context.Context, query string) ([]models.ScoredChunk, error) {
	if len(e.members) == 1 {
		return e.members[0].Retriever.Retrieve(ctx, query)
	}

	results := make([][]models.ScoredChunk, len(e.members))
	for i, m := range e.members {
		hits, err := m.Retriever.Retrieve(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("retriever %s failed: %w", m.Name, err)
		}
		results[i] = hits
	}
	return e.fuse(results), nil
}

type fused struct {
	chunk  models.ScoredChunk
	score  float64
	rank   int
	member int
}

func (e *Ensemble) fuse(results [][]models.ScoredChunk) []models.ScoredChunk {
	byContent := make(map[string]*fused)
	var order []*fused

	for mi, hits := range results {
		weight := e.members[mi].Weight
		for rank, hit := range hits {
			var score float64
			switch e.fusion {
			case FusionRRF:
				score = weight / float64(rank+rrfConstant)
			default:
				score = hit.Score * weight
			}

			if existing, ok := byContent[hit.Chunk.Content]; ok {
				if e.fusion == FusionRRF {
					existing.score += score
				} else if score > existing.score {
					existing.score = score
				}
				continue
			}
			f := &fused{chunk: hit, score: score, rank: rank, member: mi}
			byContent[hit.Chunk.Content] = f
			order = append(order, f)
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		if order[i].rank != order[j].rank {
			return order[i].rank < order[j].rank
		}
		return order[i].member < order[j].member
	})

	merged := make([]models.ScoredChunk, len(order))
	for i, f := range order {
		merged[i] = models.ScoredChunk{Chunk: f.chunk.Chunk, Score: f.score, Rank: i}
	}
	return merged
}
