// Package lyrics builds generation prompts, invokes the text provider and
// turns responses into immutable, versioned lyric drafts.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"songforge/internal/domain"
)

// Completer is the text-generation provider boundary.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error)
}

// Manager creates lyric versions for orders, either from the text
// provider or from user-submitted edits.
type Manager struct {
	completer Completer
	versions  domain.LyricsRepository
	model     string
	log       zerolog.Logger
}

func NewManager(completer Completer, versions domain.LyricsRepository, model string, log zerolog.Logger) *Manager {
	return &Manager{completer: completer, versions: versions, model: model, log: log}
}

// Generate asks the text provider for lyrics and persists the result as
// the next version. A response that fails structured parsing still yields
// a usable version carrying the raw text and a lower quality score; only
// provider invocation itself can fail.
func (m *Manager) Generate(ctx context.Context, order *domain.Order) (*domain.LyricsVersion, error) {
	if order == nil {
		return nil, domain.ErrNotFound
	}
	raw, err := m.completer.Complete(ctx, systemPrompt, buildUserPrompt(order), promptTemperature, promptMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate lyrics: %w", err)
	}
	result := parseResponse(raw)
	if result.FallbackReason != "" {
		m.log.Warn().
			Str("order_id", order.ID).
			Str("reason", result.FallbackReason).
			Msg("lyrics response kept as plain text")
	}
	version, err := m.nextVersion(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	quality := result.Quality
	v := &domain.LyricsVersion{
		ID:           uuid.NewString(),
		OrderID:      order.ID,
		Version:      version,
		Text:         result.Text,
		Model:        m.model,
		TokensIn:     wordCount(raw),
		TokensOut:    wordCount(result.Text),
		QualityScore: &quality,
		Status:       domain.LyricsStatusReady,
		CreatedAt:    time.Now().UTC(),
	}
	if result.Structured != nil {
		if encoded, err := json.Marshal(result.Structured); err == nil {
			v.PromptJSON = encoded
		}
	}
	if err := m.versions.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("persist lyrics version: %w", err)
	}
	return v, nil
}

// SubmitEdit stores user-supplied text as the next version. Quality score
// stays unset for manual edits.
func (m *Manager) SubmitEdit(ctx context.Context, order *domain.Order, text string) (*domain.LyricsVersion, error) {
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: lyrics text is empty", domain.ErrValidation)
	}
	version, err := m.nextVersion(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	v := &domain.LyricsVersion{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Version:   version,
		Text:      text,
		Status:    domain.LyricsStatusReady,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.versions.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("persist lyrics version: %w", err)
	}
	return v, nil
}

// Latest returns the newest version for the order, or ErrNotFound.
func (m *Manager) Latest(ctx context.Context, orderID string) (*domain.LyricsVersion, error) {
	return m.versions.Latest(ctx, orderID)
}

func (m *Manager) nextVersion(ctx context.Context, orderID string) (int, error) {
	latest, err := m.versions.Latest(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 1, nil
		}
		return 0, fmt.Errorf("load latest lyrics version: %w", err)
	}
	return latest.Version + 1, nil
}
