package aggregator

import "strings"

// SearchEvents filters events by a free-text query matched case-insensitively
// as a substring against title, city, venue, tags, and badges. A blank query
// returns the input unchanged. Searching never mutates its input, so applying
// the same query twice yields the same result.
func SearchEvents(events []UiEvent, q string) []UiEvent {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return events
	}

	matched := make([]UiEvent, 0, len(events))
	for _, e := range events {
		if eventMatches(e, q) {
			matched = append(matched, e)
		}
	}
	return matched
}

func eventMatches(e UiEvent, q string) bool {
	if strings.Contains(strings.ToLower(e.Title), q) ||
		strings.Contains(strings.ToLower(e.City), q) ||
		strings.Contains(strings.ToLower(e.Venue), q) {
		return true
	}
	for _, t := range e.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	for _, b := range e.Badges {
		if strings.Contains(strings.ToLower(b), q) {
			return true
		}
	}
	return false
}
