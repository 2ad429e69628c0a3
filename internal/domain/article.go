package domain

import "time"

// ArticleStatus enumerates publication states for knowledge-base articles.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "DRAFT"
	ArticleStatusPublished ArticleStatus = "PUBLISHED"
)

// ParseArticleStatus validates an article status from the HTTP boundary.
func ParseArticleStatus(value string) (ArticleStatus, bool) {
	switch ArticleStatus(value) {
	case ArticleStatusDraft, ArticleStatusPublished:
		return ArticleStatus(value), true
	default:
		return "", false
	}
}

// Article is a knowledge-base entry authored by a manager.
type Article struct {
	ID        string
	Title     string
	Content   string
	Status    ArticleStatus
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
