package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/core-crm/internal/api/dto"
	"github.com/spec-kit/core-crm/internal/auth"
	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/service"
	apperrors "github.com/spec-kit/core-crm/pkg/util/errorutil"
)

// ArticlesHandler manages knowledge-base endpoints.
type ArticlesHandler struct {
	service *service.ArticleService
}

// NewArticlesHandler constructs handler.
func NewArticlesHandler(articleService *service.ArticleService) *ArticlesHandler {
	return &ArticlesHandler{service: articleService}
}

// ListArticles GET /api/kb/articles.
func (h *ArticlesHandler) ListArticles(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	articles, err := h.service.ListArticles(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.ArticleResponse, 0, len(articles))
	for i := range articles {
		items = append(items, articleResponse(&articles[i]))
	}
	return c.JSON(items)
}

// GetArticle GET /api/kb/articles/:id.
func (h *ArticlesHandler) GetArticle(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	article, err := h.service.GetArticle(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(articleResponse(article))
}

// CreateArticle POST /api/kb/articles.
func (h *ArticlesHandler) CreateArticle(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	article, err := h.service.CreateArticle(c.UserContext(), actor, service.ArticleInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(articleResponse(article))
}

// UpdateArticle PUT /api/kb/articles/:id.
func (h *ArticlesHandler) UpdateArticle(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	article, err := h.service.UpdateArticle(c.UserContext(), actor, c.Params("id"), service.ArticleInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(articleResponse(article))
}

// DeleteArticle DELETE /api/kb/articles/:id.
func (h *ArticlesHandler) DeleteArticle(c *fiber.Ctx) error {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	if err := h.service.DeleteArticle(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func articleResponse(article *domain.Article) dto.ArticleResponse {
	return dto.ArticleResponse{
		ID:        article.ID,
		Title:     article.Title,
		Content:   article.Content,
		Status:    article.Status,
		AuthorID:  article.AuthorID,
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	}
}
