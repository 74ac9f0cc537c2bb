// Package translator translates paper abstracts with a language model and
// caches the results.
package translator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"

	"paper-review-rag/internal/helper"
	"paper-review-rag/internal/llmservice"
	"paper-review-rag/internal/models"
	"paper-review-rag/internal/store"
)

type Translator struct {
	model llms.Model
	cache store.BlobStore
}

func New(model llms.Model, cache store.BlobStore) *Translator {
	return &Translator{model: model, cache: cache}
}

// CacheKey is the blob key of the translation of arxivID into lang.
func CacheKey(arxivID, lang string) string {
	return fmt.Sprintf("translations/%s_%s.json", helper.SafeName(arxivID), helper.SafeName(lang))
}

// Translate returns text translated into lang. A cached translation for
// (arxivID, lang) is returned without calling the model.
func (t *Translator) Translate(ctx context.Context, arxivID, text, lang string) (*models.Translation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: nothing to translate", models.ErrInvalidDocument)
	}
	if lang == "" {
		return nil, fmt.Errorf("%w: missing target language", models.ErrInvalidDocument)
	}
	key := CacheKey(arxivID, lang)

	if cached, err := t.load(ctx, key); err == nil {
		log.Debug().Str("key", key).Msg("Translation cache hit")
		return cached, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Str("key", key).Msg("Ignoring unreadable translation cache")
	}

	prompt := fmt.Sprintf(models.TranslatePromptTemplate, models.LanguageName(lang), text)
	translated, err := llmservice.GenerateContent(ctx, t.model, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: translation: %w", models.ErrSynthesisFailed, err)
	}

	result := &models.Translation{Source: text, Translated: strings.TrimSpace(translated)}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	if err := t.cache.Save(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache translation")
	}
	return result, nil
}

func (t *Translator) load(ctx context.Context, key string) (*models.Translation, error) {
	data, err := t.cache.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	var tr models.Translation
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}
