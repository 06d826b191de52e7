package types

import (
	"time"
)

// Article is the persisted unit: one saved URL with its extracted,
// compressed body and derived metadata. Content fields are written once
// at insert and never overwritten (first-write-wins per URL).
type Article struct {
	ID             string    `json:"id"              bson:"_id"`
	OwnerID        string    `json:"owner_id"        bson:"owner_id"`
	URL            string    `json:"url"             bson:"url"`
	Title          string    `json:"title"           bson:"title"`
	Summary        string    `json:"summary"         bson:"summary"`
	Category       string    `json:"category"        bson:"category"`
	Language       string    `json:"language"        bson:"language"`
	BodyCompressed []byte    `json:"-"               bson:"body_compressed"`
	CreatedAt      time.Time `json:"created_at"      bson:"created_at"`
}

// ExtractedContent is the transient result of fetching and extracting a
// URL. It lives only in the content cache; losing it forces a re-fetch
// but never loses persisted data.
type ExtractedContent struct {
	Title     string
	Body      string
	Language  string
	FetchedAt time.Time
}
