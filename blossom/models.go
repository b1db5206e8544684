package blossom

import (
	"time"
)

type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type Volunteer struct {
	ID         int       `json:"id"`
	Username   string    `json:"username"`
	Gamma      int       `json:"gamma"`
	DateJoined time.Time `json:"date_joined"`
}

type Transcription struct {
	ID                int       `json:"id"`
	Submission        string    `json:"submission"`
	Author            string    `json:"author"`
	CreateTime        time.Time `json:"create_time"`
	OriginalID        string    `json:"original_id"`
	Source            string    `json:"source"`
	URL               *string   `json:"url"`
	Text              string    `json:"text"`
	RemovedFromReddit bool      `json:"removed_from_reddit"`
}

// HeatmapEntry is the number of completed submissions in one hour of one weekday.
// Day ranges from 1 (Monday) to 7 (Sunday), Hour from 0 to 23.
type HeatmapEntry struct {
	Day   int `json:"day"`
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type TranscriptionQuery struct {
	Text     string
	AuthorID *int
	PageSize int
	// Page is 1-based like the API.
	Page int
}

type HeatmapQuery struct {
	CompletedBy *int
	UTCOffset   int
	After       *time.Time
	Before      *time.Time
}

type tokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
