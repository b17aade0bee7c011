package entity

import (
	"time"

	"github.com/google/uuid"
)

type QuoteComment struct {
	Id         uuid.UUID `db:"id"`
	RevisionId uuid.UUID `db:"revision_id"`
	AuthorId   uuid.UUID `db:"author_id"`
	Body       string    `db:"body"`
	Internal   bool      `db:"internal"`
	CreatedAt  time.Time `db:"created_at"`
}

type CommentOutputModel struct {
	Id        string `json:"id"`
	AuthorId  string `json:"authorId"`
	Body      string `json:"body"`
	CreatedAt string `json:"createdAt"`
}
