package model

import "time"

// TestRecord is a generated test as persisted, with the configuration that produced it.
type TestRecord struct {
	ID        string            `json:"id"`
	UserID    int64             `json:"user_id"`
	Config    TestConfiguration `json:"config"`
	Test      GeneratedTest     `json:"test"`
	CreatedAt time.Time         `json:"created_at"`
}

// TestSummary is the list view of a stored test.
type TestSummary struct {
	ID        string
	Title     string
	Subject   string
	Level     string
	Taxonomy  TaxonomyID
	CreatedAt time.Time
}
