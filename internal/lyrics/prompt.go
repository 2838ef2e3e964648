package lyrics

import (
	"fmt"
	"strings"

	"songforge/internal/domain"
)

const (
	promptTemperature = 0.8
	promptMaxTokens   = 2000
)

const systemPrompt = "You are a professional songwriter and lyric editor. " +
	"Strictly keep structure, rhythm and clean rhymes, avoid cliches. " +
	"Honor the occasion, the recipient and the desired emotions. " +
	"The text must be original, free of plagiarism and of disallowed content. " +
	"If the request is questionable, offer a softer alternative."

// buildUserPrompt renders the order attributes into the generation brief.
// The structure constraints (two verses, repeated chorus, optional bridge,
// ~60-90 words) are fixed.
func buildUserPrompt(order *domain.Order) string {
	sb := &strings.Builder{}
	sb.WriteString("Goal: a personal song.\n")
	fmt.Fprintf(sb, "Language: %s\n", order.Language)
	fmt.Fprintf(sb, "Genre/style: %s\n", orDefault(order.Genre, "pop"))
	fmt.Fprintf(sb, "Mood: %s\n", orDefault(order.Mood, "romantic"))
	fmt.Fprintf(sb, "Tempo: %s\n", orDefault(order.Tempo, "medium, 90-110 BPM, 4/4"))
	fmt.Fprintf(sb, "Occasion: %s\n", orDefault(order.Occasion, "general"))
	fmt.Fprintf(sb, "Recipient: %s\n", orDefault(order.Recipient, "a friend"))
	fmt.Fprintf(sb, "Key phrases: %s\n", orDefault(order.Notes, "none"))
	sb.WriteString("Structure: 2 verses of 8-12 lines, a chorus of 4-6 lines (repeated), optionally a 4-line bridge.\n")
	sb.WriteString("Length: ~60-90 words.\n")
	sb.WriteString("Tone: sincere, vivid, tasteful.\n\n")
	sb.WriteString("Respond with JSON:\n")
	sb.WriteString(`{
  "title": "Short title",
  "tags": ["genre","mood","occasion","language"],
  "sections": [
    {"type":"verse","label":"Verse 1","lines":["...","..."]},
    {"type":"chorus","label":"Chorus","lines":["...","..."]},
    {"type":"verse","label":"Verse 2","lines":["...","..."]},
    {"type":"bridge","label":"Bridge","lines":["...","..."]},
    {"type":"chorus","label":"Chorus","lines":["...","..."]}
  ],
  "notes":"short remarks if any"
}`)
	return sb.String()
}

func orDefault(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
