package suno

import (
	"sort"
	"strings"
)

const (
	maxResultURLs = 4
	maxWalkDepth  = 64
)

// resultURLKeys are the payload keys that may carry an audio result URL.
var resultURLKeys = []string{"audioUrl", "downloadUrl", "streamUrl"}

// ExtractAudioURLs walks an arbitrary decoded JSON tree and collects
// absolute HTTP(S) URLs found under the recognized keys, in first-seen
// order without duplicates, capped at 4. JSON trees are acyclic but the
// recursion depth is bounded anyway.
func ExtractAudioURLs(node any) []string {
	seen := make(map[string]struct{})
	var out []string
	walkURLs(node, 0, func(url string) bool {
		if _, ok := seen[url]; ok {
			return len(out) < maxResultURLs
		}
		seen[url] = struct{}{}
		out = append(out, url)
		return len(out) < maxResultURLs
	})
	return out
}

// walkURLs visits objects and arrays; scalars other than recognized
// string values are ignored. The visitor returns false to stop early.
func walkURLs(node any, depth int, visit func(string) bool) bool {
	if depth > maxWalkDepth {
		return true
	}
	switch v := node.(type) {
	case map[string]any:
		for _, key := range resultURLKeys {
			if s, ok := v[key].(string); ok && isHTTPURL(s) {
				if !visit(s) {
					return false
				}
			}
		}
		// Deterministic traversal: Go maps iterate in random order.
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if !walkURLs(v[key], depth+1, visit) {
				return false
			}
		}
	case []any:
		for _, child := range v {
			if !walkURLs(child, depth+1, visit) {
				return false
			}
		}
	}
	return true
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
