package models

import "errors"

var (
	// ErrSourceUnavailable is returned when a paper, transcript or file
	// cannot be fetched or read.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrBuildFailed is returned when an index could not be built; nothing
	// has been persisted.
	ErrBuildFailed = errors.New("index build failed")
	// ErrCorruptIndex is returned when a persisted index cannot be decoded.
	ErrCorruptIndex = errors.New("persisted index is corrupt")
	// ErrSynthesisFailed is returned when the language model call fails.
	ErrSynthesisFailed = errors.New("answer synthesis failed")
	// ErrNoRetriever is returned when a question is asked before any index
	// has been built.
	ErrNoRetriever = errors.New("no retriever is available")
	// ErrEmptyQuestion is returned when the question is blank.
	ErrEmptyQuestion = errors.New("empty question")

	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
	ErrInvalidDocument    = errors.New("invalid document")
)
