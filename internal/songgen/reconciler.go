package songgen

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"songforge/internal/domain"
	"songforge/internal/providers/suno"
)

// OrderCompleter applies the order-level transition once the matching
// asset has reached ready. Implemented by the order service.
type OrderCompleter interface {
	MarkDelivered(ctx context.Context, orderID string) error
}

// Notifier delivers terminal outcomes to the order owner. The reconciler
// invokes it at most once per task, guarded by the asset status swap.
type Notifier interface {
	SongReady(ctx context.Context, userID, orderID string, urls []string) error
	SongFailed(ctx context.Context, userID, orderID string) error
}

// Reconciler merges completion observed on either channel into persistent
// state exactly once. The conditional generating->ready|failed swap on the
// asset is the only ordering primitive: whichever channel lands first
// wins, the other becomes a no-op.
type Reconciler struct {
	registry *Registry
	assets   domain.AudioAssetRepository
	orders   OrderCompleter
	notifier Notifier
	log      zerolog.Logger
}

func NewReconciler(registry *Registry, assets domain.AudioAssetRepository, orders OrderCompleter, notifier Notifier, log zerolog.Logger) *Reconciler {
	return &Reconciler{registry: registry, assets: assets, orders: orders, notifier: notifier, log: log}
}

// HandleCallback processes one inbound provider callback payload. Unknown
// tasks and payloads without URLs are ignored: the poller remains
// responsible for those jobs.
func (r *Reconciler) HandleCallback(ctx context.Context, payload map[string]any) error {
	taskID := callbackTaskID(payload)
	if taskID == "" {
		r.log.Warn().Msg("callback without task id ignored")
		return nil
	}
	urls := suno.ExtractAudioURLs(payload)
	if len(urls) == 0 {
		r.log.Info().Str("task_id", taskID).Msg("callback carried no result urls")
		return nil
	}
	return r.Complete(ctx, taskID, urls)
}

// Complete commits a successful result for the task. Safe to call from
// both channels concurrently.
func (r *Reconciler) Complete(ctx context.Context, taskID string, urls []string) error {
	entry, ok := r.registry.Resolve(taskID)
	if !ok {
		r.log.Info().Str("task_id", taskID).Msg("completion for unknown task ignored")
		return nil
	}
	meta := map[string]any{
		"task_id":         taskID,
		"generation_mode": string(entry.Mode),
	}
	swapped, err := r.assets.TransitionStatus(ctx, entry.AssetID, domain.AudioStatusGenerating, domain.AudioStatusReady, urls, meta)
	if err != nil {
		return fmt.Errorf("transition asset to ready: %w", err)
	}
	if !swapped {
		// The other channel already delivered.
		return nil
	}
	r.registry.Remove(taskID)
	if err := r.orders.MarkDelivered(ctx, entry.OrderID); err != nil {
		r.log.Error().Err(err).Str("order_id", entry.OrderID).Msg("mark order delivered failed")
	}
	if err := r.notifier.SongReady(ctx, entry.UserID, entry.OrderID, urls); err != nil {
		r.log.Error().Err(err).Str("order_id", entry.OrderID).Msg("song ready notification failed")
	}
	r.log.Info().
		Str("task_id", taskID).
		Str("order_id", entry.OrderID).
		Int("urls", len(urls)).
		Msg("generation completed")
	return nil
}

// Fail commits a terminal failure (poll timeout or provider error) for
// the task. The order stays in generating for manual follow-up; only the
// asset and the owner notification record the failure.
func (r *Reconciler) Fail(ctx context.Context, taskID, reason string) error {
	entry, ok := r.registry.Resolve(taskID)
	if !ok {
		return nil
	}
	meta := map[string]any{
		"task_id":        taskID,
		"failure_reason": reason,
	}
	swapped, err := r.assets.TransitionStatus(ctx, entry.AssetID, domain.AudioStatusGenerating, domain.AudioStatusFailed, nil, meta)
	if err != nil {
		return fmt.Errorf("transition asset to failed: %w", err)
	}
	if !swapped {
		return nil
	}
	r.registry.Remove(taskID)
	if err := r.notifier.SongFailed(ctx, entry.UserID, entry.OrderID); err != nil {
		r.log.Error().Err(err).Str("order_id", entry.OrderID).Msg("song failed notification failed")
	}
	r.log.Warn().
		Str("task_id", taskID).
		Str("order_id", entry.OrderID).
		Str("reason", reason).
		Msg("generation failed")
	return nil
}

// callbackTaskID reads taskId from the top level or the data node.
func callbackTaskID(payload map[string]any) string {
	if id, ok := payload["taskId"].(string); ok && id != "" {
		return id
	}
	if data, ok := payload["data"].(map[string]any); ok {
		if id, ok := data["taskId"].(string); ok && id != "" {
			return id
		}
		if id, ok := data["task_id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}
