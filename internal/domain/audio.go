package domain

import "time"

// AudioKind enumerates audio asset types.
type AudioKind string

const (
	AudioKindPreview AudioKind = "preview"
	AudioKindFull    AudioKind = "full"
)

// AudioStatus enumerates audio asset states. Transitions are one-way:
// queued -> generating -> ready|failed.
type AudioStatus string

const (
	AudioStatusQueued     AudioStatus = "queued"
	AudioStatusGenerating AudioStatus = "generating"
	AudioStatusReady      AudioStatus = "ready"
	AudioStatusFailed     AudioStatus = "failed"
)

// CanTransition reports whether moving from s to next is legal.
func (s AudioStatus) CanTransition(next AudioStatus) bool {
	switch s {
	case AudioStatusQueued:
		return next == AudioStatusGenerating
	case AudioStatusGenerating:
		return next == AudioStatusReady || next == AudioStatusFailed
	}
	return false
}

// AudioAsset is a rendered (or in-flight) audio artifact for one order.
// URLs and Meta are populated once the asset reaches ready.
type AudioAsset struct {
	ID          string
	OrderID     string
	Kind        AudioKind
	Provider    string
	Status      AudioStatus
	URLs        []string
	Meta        map[string]any
	DurationSec float64
	CreatedAt   time.Time
}
