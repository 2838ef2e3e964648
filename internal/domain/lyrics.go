package domain

import "time"

// LyricsStatus enumerates lyric version states.
type LyricsStatus string

const (
	LyricsStatusDraft    LyricsStatus = "draft"
	LyricsStatusReady    LyricsStatus = "ready"
	LyricsStatusRejected LyricsStatus = "rejected"
)

// LyricsVersion is an immutable lyric draft belonging to one order.
// Version numbers start at 1 per order and are never reused.
type LyricsVersion struct {
	ID           string
	OrderID      string
	Version      int
	Text         string
	Model        string
	PromptJSON   []byte
	TokensIn     int
	TokensOut    int
	QualityScore *float64
	Status       LyricsStatus
	CreatedAt    time.Time
}
