// Package topicresolve implements the cangjie_get_topic miss-handling
// path: cross-category fallback lookup and Jaro-Winkler "did you mean"
// suggestions. Grounded on
// original_source/cangjie-mcp/src/server/tools.rs's get_topic.
package topicresolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

const (
	SimilarityThreshold = 0.6
	MaxSuggestions      = 5
)

var jaroWinkler = metrics.NewJaroWinkler()

// Suggestion is one "did you mean" candidate with its similarity score.
type Suggestion struct {
	Topic      string
	Similarity float64
}

// Suggest ranks allTopics by Jaro-Winkler similarity to topic, keeping only
// matches above SimilarityThreshold and capping the result at
// MaxSuggestions. Grounded on get_topic's strsim::jaro_winkler pass.
func Suggest(topic string, allTopics []string) []Suggestion {
	var suggestions []Suggestion
	for _, t := range allTopics {
		sim := strutil.Similarity(topic, t, jaroWinkler)
		if sim > SimilarityThreshold {
			suggestions = append(suggestions, Suggestion{Topic: t, Similarity: sim})
		}
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Similarity > suggestions[j].Similarity
	})
	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// DisplayWithCategories formats a suggested topic name annotated with the
// categories it appears in, e.g. "http (in net, stdlib)". Grounded on
// tools.rs's topic_display_with_categories.
func DisplayWithCategories(topic string, topicCategoryMap map[string][]string) string {
	cats := topicCategoryMap[topic]
	if len(cats) == 0 {
		return topic
	}
	return fmt.Sprintf("%s (in %s)", topic, strings.Join(cats, ", "))
}

// BuildTopicCategoryMap inverts a category->topics listing into a
// topic->categories map, sorted and deduplicated per topic. Grounded on
// tools.rs's build_topic_category_map.
func BuildTopicCategoryMap(topicsByCategory map[string][]string) map[string][]string {
	mapping := make(map[string][]string)
	for category, topics := range topicsByCategory {
		for _, topic := range topics {
			mapping[topic] = append(mapping[topic], category)
		}
	}
	for topic, cats := range mapping {
		sort.Strings(cats)
		mapping[topic] = dedupSorted(cats)
	}
	return mapping
}

func dedupSorted(sorted []string) []string {
	out := sorted[:0]
	var prev string
	first := true
	for _, s := range sorted {
		if first || s != prev {
			out = append(out, s)
			prev = s
			first = false
		}
	}
	return out
}

// NotFoundMessage builds the full "Topic not found" message: a
// wrong-category hint (if topic exists elsewhere) plus ranked suggestions.
// Grounded on get_topic's Ok(None) branch.
func NotFoundMessage(topic, requestedCategory string, topicCategoryMap map[string][]string, allTopics []string) string {
	msg := fmt.Sprintf("Topic '%s' not found.", topic)

	if requestedCategory != "" {
		if cats, ok := topicCategoryMap[topic]; ok && !containsString(cats, requestedCategory) {
			msg += fmt.Sprintf("\nTopic '%s' exists in category: %s.", topic, strings.Join(cats, ", "))
		}
	}

	suggestions := Suggest(topic, allTopics)
	if len(suggestions) > 0 {
		names := make([]string, 0, len(suggestions))
		for _, s := range suggestions {
			names = append(names, DisplayWithCategories(s.Topic, topicCategoryMap))
		}
		msg += fmt.Sprintf("\nDid you mean: %s?", strings.Join(names, ", "))
	}

	return msg
}

func containsString(items []string, target string) bool {
	for _, it := range items {
		if it == target {
			return true
		}
	}
	return false
}
