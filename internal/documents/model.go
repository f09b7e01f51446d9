package documents

import "time"

// Document represents an uploaded document owned by a user.
type Document struct {
	ID         string
	OwnerID    string
	OwnerEmail string
	DocType    DocType
	Hint       string
	FileURL    string
	CreatedAt  time.Time
}
