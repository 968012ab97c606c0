package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	QueryAuthors Phase = iota
	QueryTopics
	MergeResults
	FetchFeeds
)

func (p Phase) String() string {
	switch p {
	case QueryAuthors:
		return "query_authors"
	case QueryTopics:
		return "query_topics"
	case MergeResults:
		return "merge"
	case FetchFeeds:
		return "fetch_feeds"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func queryUpdate(q query, step, total int) ProgressUpdate {
	phase, label := QueryAuthors, "author"
	if q.topic {
		phase, label = QueryTopics, "topic"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Searching %s: %s", step, total, label, q.term),
	}
}

func queryFailedUpdate(q query, step, total int, err error) ProgressUpdate {
	u := queryUpdate(q, step, total)
	u.Message = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, q.term, err)
	return u
}

func mergeUpdate(candidates, kept int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergeResults,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Merged %d candidates into %d recommendations", candidates, kept),
		Data:    kept,
	}
}

func feedUpdate(step, total int, author string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeeds,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching feed for %s", step, total, author),
	}
}

func feedFailedUpdate(step, total int, author string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeeds,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, author, err),
	}
}
