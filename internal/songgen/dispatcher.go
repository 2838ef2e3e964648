package songgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"songforge/internal/domain"
	"songforge/internal/providers/suno"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 420 * time.Second
)

// AudioProvider is the rendering provider boundary.
type AudioProvider interface {
	Generate(ctx context.Context, req suno.GenerateRequest) (*suno.Submission, error)
	RecordInfo(ctx context.Context, taskID string) (map[string]any, error)
}

// Dispatcher submits rendering jobs and supervises one poller goroutine
// per dispatched task. Pollers share a base context so shutdown abandons
// them safely; idempotent reconciliation makes orphans harmless.
type Dispatcher struct {
	provider     AudioProvider
	registry     *Registry
	assets       domain.AudioAssetRepository
	reconciler   *Reconciler
	pollInterval time.Duration
	pollTimeout  time.Duration
	log          zerolog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDispatcher(provider AudioProvider, registry *Registry, assets domain.AudioAssetRepository, reconciler *Reconciler, log zerolog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		provider:     provider,
		registry:     registry,
		assets:       assets,
		reconciler:   reconciler,
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
		log:          log,
		baseCtx:      ctx,
		cancel:       cancel,
	}
}

// SetPollPolicy overrides the poll interval and overall deadline.
func (d *Dispatcher) SetPollPolicy(interval, timeout time.Duration) {
	if interval > 0 {
		d.pollInterval = interval
	}
	if timeout > 0 {
		d.pollTimeout = timeout
	}
}

// Dispatch submits the order's lyrics for rendering, registers the
// returned task handle and moves the asset to generating. The poller for
// the task starts immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, order *domain.Order, asset *domain.AudioAsset, lyricsText string) (string, error) {
	if order == nil || asset == nil {
		return "", domain.ErrNotFound
	}
	req := suno.GenerateRequest{
		Title:  buildTitle(order),
		Style:  buildStylePrompt(order),
		Lyrics: lyricsText,
		Prompt: buildStylePrompt(order),
	}
	sub, err := d.provider.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	deadline := time.Now().Add(d.pollTimeout)
	d.registry.Register(sub.TaskID, Entry{
		OrderID:  order.ID,
		UserID:   order.UserID,
		AssetID:  asset.ID,
		Mode:     sub.Mode,
		Deadline: deadline,
	})
	swapped, err := d.assets.TransitionStatus(ctx, asset.ID, domain.AudioStatusQueued, domain.AudioStatusGenerating, nil, nil)
	if err != nil {
		return "", fmt.Errorf("transition asset to generating: %w", err)
	}
	if !swapped {
		d.registry.Remove(sub.TaskID)
		return "", fmt.Errorf("%w: asset %s is not queued", domain.ErrInvalidTransition, asset.ID)
	}
	d.log.Info().
		Str("task_id", sub.TaskID).
		Str("order_id", order.ID).
		Str("mode", string(sub.Mode)).
		Msg("rendering dispatched")

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.poll(sub.TaskID, deadline); err != nil && !errors.Is(err, context.Canceled) {
			d.log.Warn().Err(err).Str("task_id", sub.TaskID).Msg("poller gave up")
		}
	}()
	return sub.TaskID, nil
}

// poll issues status requests at a fixed interval until either a
// non-empty result set is found or the deadline elapses. Errors on a
// single poll are logged and retried on the next tick; the deadline is
// reported as domain.ErrTimeout after the failure is recorded.
func (d *Dispatcher) poll(taskID string, deadline time.Time) error {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.baseCtx.Done():
			return d.baseCtx.Err()
		case <-ticker.C:
		}
		if time.Now().After(deadline) {
			if err := d.reconciler.Fail(d.baseCtx, taskID, "poll timeout"); err != nil {
				d.log.Error().Err(err).Str("task_id", taskID).Msg("record poll timeout failed")
			}
			return fmt.Errorf("%w: render task %s exceeded poll deadline", domain.ErrTimeout, taskID)
		}
		body, err := d.provider.RecordInfo(d.baseCtx, taskID)
		if err != nil {
			d.log.Warn().Err(err).Str("task_id", taskID).Msg("poll attempt failed")
			continue
		}
		urls := suno.ExtractAudioURLs(body["data"])
		if len(urls) == 0 {
			continue
		}
		if err := d.reconciler.Complete(d.baseCtx, taskID, urls); err != nil {
			d.log.Error().Err(err).Str("task_id", taskID).Msg("commit poll result failed")
			continue
		}
		return nil
	}
}

// Close stops all pollers and waits for them to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func buildTitle(order *domain.Order) string {
	recipient := strings.TrimSpace(order.Recipient)
	if recipient == "" {
		recipient = "a friend"
	}
	return suno.Truncate(fmt.Sprintf("Song for %s", recipient), 80)
}

// buildStylePrompt summarizes the order's style attributes into the
// free-text brief used for style tags and for non-custom submissions.
func buildStylePrompt(order *domain.Order) string {
	genre := strings.TrimSpace(order.Genre)
	if genre == "" {
		genre = "pop"
	}
	mood := strings.TrimSpace(order.Mood)
	if mood == "" {
		mood = "romantic"
	}
	tempo := strings.TrimSpace(order.Tempo)
	if tempo == "" {
		tempo = "medium tempo"
	}
	return fmt.Sprintf("%s, %s, %s, language: %s", genre, mood, tempo, order.Language)
}
