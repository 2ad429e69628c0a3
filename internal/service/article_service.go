package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/repository"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

// ArticleService manages the knowledge base. Managers author and may
// see drafts; everyone else sees published articles only.
type ArticleService struct {
	articles repository.ArticleRepository
}

// NewArticleService constructs the service.
func NewArticleService(articles repository.ArticleRepository) *ArticleService {
	return &ArticleService{articles: articles}
}

// ArticleInput describes a create/update payload.
type ArticleInput struct {
	Title   string
	Content string
	Status  string
}

// ListArticles returns articles visible to the actor.
func (s *ArticleService) ListArticles(ctx context.Context, actor *domain.User) ([]domain.Article, error) {
	publishedOnly := actor.Role != domain.RoleManager
	articles, err := s.articles.List(ctx, publishedOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return articles, nil
}

// GetArticle returns one article; drafts are manager-only.
func (s *ArticleService) GetArticle(ctx context.Context, actor *domain.User, id string) (*domain.Article, error) {
	article, err := s.loadArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	if article.Status == domain.ArticleStatusDraft && actor.Role != domain.RoleManager {
		return nil, apperrors.NewForbidden("cannot view draft articles")
	}
	return article, nil
}

// CreateArticle authors a new article. Manager only.
func (s *ArticleService) CreateArticle(ctx context.Context, actor *domain.User, input ArticleInput) (*domain.Article, error) {
	if actor.Role != domain.RoleManager {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}
	article, err := s.validated(actor, input)
	if err != nil {
		return nil, err
	}
	if err := s.articles.Create(ctx, article); err != nil {
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

// UpdateArticle replaces title, content and status. Manager only.
func (s *ArticleService) UpdateArticle(ctx context.Context, actor *domain.User, id string, input ArticleInput) (*domain.Article, error) {
	if actor.Role != domain.RoleManager {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}
	updated, err := s.validated(actor, input)
	if err != nil {
		return nil, err
	}

	article, err := s.loadArticle(ctx, id)
	if err != nil {
		return nil, err
	}
	article.Title = updated.Title
	article.Content = updated.Content
	article.Status = updated.Status
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, apperrors.MapError(err)
	}
	return article, nil
}

// DeleteArticle removes an article. Manager only.
func (s *ArticleService) DeleteArticle(ctx context.Context, actor *domain.User, id string) error {
	if actor.Role != domain.RoleManager {
		return apperrors.NewForbidden("insufficient permissions")
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("article", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *ArticleService) validated(actor *domain.User, input ArticleInput) (*domain.Article, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", map[string]any{"field": "title"})
	}
	if content == "" {
		return nil, apperrors.NewValidationError("content required", map[string]any{"field": "content"})
	}
	status := domain.ArticleStatusDraft
	if input.Status != "" {
		parsed, ok := domain.ParseArticleStatus(input.Status)
		if !ok {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"field": "status", "value": input.Status})
		}
		status = parsed
	}
	return &domain.Article{
		Title:    title,
		Content:  content,
		Status:   status,
		AuthorID: actor.ID,
	}, nil
}

func (s *ArticleService) loadArticle(ctx context.Context, id string) (*domain.Article, error) {
	article, err := s.articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("article", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return article, nil
}
