// Package session tracks which indexes are available for question answering.
package session

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"paper-review-rag/internal/models"
	"paper-review-rag/internal/retriever"
)

type Stage int

const (
	None Stage = iota
	PaperOnly
	TranscriptOnly
	Both
)

func (s Stage) String() string {
	switch s {
	case None:
		return "NONE"
	case PaperOnly:
		return "PAPER_ONLY"
	case TranscriptOnly:
		return "TRANSCRIPT_ONLY"
	case Both:
		return "BOTH"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options controls how the session composes its retriever.
type Options struct {
	TopK             int
	PaperWeight      float64
	TranscriptWeight float64
	Fusion           string
}

// Session holds the indexes built so far. Stages only move forward: once an
// index is set it is never removed, though it may be replaced.
type Session struct {
	opts       Options
	paper      retriever.Index
	transcript retriever.Index
}

func New(opts Options) *Session {
	if opts.TopK <= 0 {
		opts.TopK = 4
	}
	return &Session{opts: opts}
}

func (s *Session) Stage() Stage {
	switch {
	case s.paper != nil && s.transcript != nil:
		return Both
	case s.paper != nil:
		return PaperOnly
	case s.transcript != nil:
		return TranscriptOnly
	default:
		return None
	}
}

func (s *Session) SetPaperIndex(idx retriever.Index) {
	if idx == nil {
		return
	}
	before := s.Stage()
	s.paper = idx
	log.Info().Stringer("from", before).Stringer("to", s.Stage()).Msg("Paper index ready")
}

func (s *Session) SetTranscriptIndex(idx retriever.Index) {
	if idx == nil {
		return
	}
	before := s.Stage()
	s.transcript = idx
	log.Info().Stringer("from", before).Stringer("to", s.Stage()).Msg("Transcript index ready")
}

// Retriever returns the retriever for the current stage. A single index is
// served directly; with both an ensemble is built. In None it returns
// models.ErrNoRetriever.
func (s *Session) Retriever() (retriever.Retriever, error) {
	switch s.Stage() {
	case PaperOnly:
		return retriever.NewSingle(s.paper, s.opts.TopK), nil
	case TranscriptOnly:
		return retriever.NewSingle(s.transcript, s.opts.TopK), nil
	case Both:
		return retriever.NewEnsemble([]retriever.Member{
			{Name: "paper", Retriever: retriever.NewSingle(s.paper, s.opts.TopK), Weight: s.opts.PaperWeight},
			{Name: "transcript", Retriever: retriever.NewSingle(s.transcript, s.opts.TopK), Weight: s.opts.TranscriptWeight},
		}, s.opts.Fusion)
	default:
		return nil, models.ErrNoRetriever
	}
}
