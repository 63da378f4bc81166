// Package analytics publishes index and query events to Kafka so usage can
// be analysed outside the serving process.
package analytics

import "time"

type EventType string

const (
	EventSearch        EventType = "search"
	EventFrequency     EventType = "frequency"
	EventIndexComplete EventType = "index_complete"
)

// QueryEvent describes one answered query.
type QueryEvent struct {
	Type      EventType `json:"type"`
	Word      string    `json:"word"`
	Hits      int       `json:"hits"`
	CacheHit  bool      `json:"cache_hit"`
	LatencyUs int64     `json:"latency_us"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// IndexEvent is published once after the index has been built.
type IndexEvent struct {
	Type          EventType `json:"type"`
	BuildID       string    `json:"build_id"`
	CorpusDir     string    `json:"corpus_dir"`
	Available     bool      `json:"available"`
	FilesIndexed  int       `json:"files_indexed"`
	FilesSkipped  int       `json:"files_skipped"`
	Tokens        int       `json:"tokens"`
	DistinctWords int       `json:"distinct_words"`
	DurationMs    int64     `json:"duration_ms"`
	Timestamp     time.Time `json:"timestamp"`
}
