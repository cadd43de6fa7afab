package scoring

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var stopwords = toSet(
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from", "has", "have", "he",
	"in", "is", "it", "its", "of", "on", "or", "that", "the", "their", "they", "this", "to",
	"was", "were", "will", "with", "you", "your", "we", "our", "us",
)

// shortTerms survive the minimum token length filter.
var shortTerms = toSet("c", "go", "ai", "ml", "ui", "ux", "qa", "c#", "c++")

var actionVerbs = []string{
	"built", "created", "designed", "developed", "delivered", "implemented", "improved",
	"increased", "reduced", "optimized", "automated", "led", "managed", "owned", "shipped",
	"launched", "migrated", "refactored", "collaborated", "analyzed", "architected", "tested",
	"deployed",
}

var outcomeMarkers = []string{
	"improved", "increased", "reduced", "decreased", "accelerated", "saved", "cut", "boosted",
	"grew", "optimized", "revenue", "cost", "latency", "throughput", "uptime", "performance",
	"efficiency", "scalability",
}

// ExtractKeywords lowercases text, splits it on anything that is not a
// letter, digit, '+' or '#', and drops stopwords and short tokens.
func ExtractKeywords(text string) map[string]struct{} {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})

	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		lower := strings.ToLower(token)
		if _, stop := stopwords[lower]; stop {
			continue
		}
		if utf8.RuneCountInString(lower) <= 2 {
			if _, keep := shortTerms[lower]; !keep {
				continue
			}
		}
		out[lower] = struct{}{}
	}
	return out
}

func looksLikeActionBullet(bullet string) bool {
	b := strings.ToLower(strings.TrimSpace(bullet))
	if b == "" {
		return false
	}
	first := strings.Fields(b)[0]
	for _, verb := range actionVerbs {
		if first == verb || strings.HasPrefix(b, verb+" ") {
			return true
		}
	}
	return false
}

func containsNumber(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

func containsOutcome(s string) bool {
	lower := strings.ToLower(s)
	for _, marker := range outcomeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func toSet(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

func intersect(a, b map[string]struct{}) []string {
	out := []string{}
	for k := range a {
		if _, ok := b[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func difference(a, b map[string]struct{}) []string {
	out := []string{}
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sample(items []string, limit int) []string {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
