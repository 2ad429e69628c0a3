package dto

import (
	"time"

	"github.com/spec-kit/core-crm/internal/domain"
)

// ArticleRequest payload for create and update.
type ArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

// ArticleResponse mirrors a knowledge-base article.
type ArticleResponse struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Content   string               `json:"content"`
	Status    domain.ArticleStatus `json:"status"`
	AuthorID  string               `json:"authorId"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}
