package models

import (
	"strings"
	"time"

	id "taxdesk/pkg/domain"
	dErrors "taxdesk/pkg/domain-errors"
)

// Note is free text attached to a client. Client-facing notes are shown to
// the client; the rest are staff-only.
type Note struct {
	ID             id.NoteID   `json:"id"`
	ClientID       id.ClientID `json:"clientId"`
	AuthorID       id.ActorID  `json:"authorId"`
	AuthorName     string      `json:"authorName"`
	Content        string      `json:"content"`
	IsClientFacing bool        `json:"isClientFacing"`
	CreatedAt      time.Time   `json:"createdAt"`
}

func NewNote(clientID id.ClientID, authorID id.ActorID, authorName, content string, clientFacing bool, now time.Time) (*Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "note content cannot be empty")
	}
	return &Note{
		ID:             id.NewNoteID(),
		ClientID:       clientID,
		AuthorID:       authorID,
		AuthorName:     authorName,
		Content:        content,
		IsClientFacing: clientFacing,
		CreatedAt:      now,
	}, nil
}

// Detail is the client page: the record plus everything it owns.
type Detail struct {
	Client        *Client     `json:"client"`
	Documents     []*Document `json:"documents"`
	Payments      []*Payment  `json:"payments"`
	Notes         []*Note     `json:"notes"`
	VerifiedCount int         `json:"verifiedCount"`
	Outstanding   Money       `json:"outstanding"`
	Credit        Money       `json:"credit"`
}
