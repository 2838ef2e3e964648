package lyrics

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	qualityStructured = 0.8
	qualityFallback   = 0.6
)

type parsedLyrics struct {
	Title    string    `json:"title"`
	Tags     []string  `json:"tags"`
	Sections []section `json:"sections"`
	Notes    string    `json:"notes"`
}

type section struct {
	Type  string   `json:"type"`
	Label string   `json:"label"`
	Lines []string `json:"lines"`
}

// parseResult is the outcome of interpreting a raw model response. Either
// Structured is set (strict JSON parse succeeded) or FallbackReason names
// why the response was kept as plain text. Text is always usable.
type parseResult struct {
	Text           string
	Structured     *parsedLyrics
	Quality        float64
	FallbackReason string
}

// parseResponse interprets the provider response. Parse failure is a
// designed branch, not an error: the raw text becomes the lyric body with
// a lower quality score.
func parseResponse(raw string) parseResult {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return parseResult{Text: raw, Quality: qualityFallback, FallbackReason: "empty_payload"}
	}
	var parsed parsedLyrics
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return parseResult{Text: raw, Quality: qualityFallback, FallbackReason: "json_decode"}
	}
	if len(parsed.Sections) == 0 {
		return parseResult{Text: raw, Quality: qualityFallback, FallbackReason: "no_sections"}
	}
	return parseResult{
		Text:       renderLyrics(parsed),
		Structured: &parsed,
		Quality:    qualityStructured,
	}
}

// renderLyrics flattens the structured sections into one text body with
// section markers followed by lines.
func renderLyrics(p parsedLyrics) string {
	lines := make([]string, 0, 32)
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "Song"
	}
	lines = append(lines, fmt.Sprintf("# %s", title), "")
	for _, s := range p.Sections {
		label := strings.TrimSpace(s.Label)
		if label == "" {
			label = sectionLabel(s.Type)
		}
		lines = append(lines, fmt.Sprintf("**[%s]**", label))
		lines = append(lines, s.Lines...)
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func sectionLabel(sectionType string) string {
	switch strings.ToLower(strings.TrimSpace(sectionType)) {
	case "verse":
		return "Verse"
	case "chorus":
		return "Chorus"
	case "bridge":
		return "Bridge"
	default:
		return "Section"
	}
}

// extractJSONFragment strips code fences and surrounding prose so a JSON
// object embedded in a chatty response still parses.
func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}
