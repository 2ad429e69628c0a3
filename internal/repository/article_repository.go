package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/core-crm/internal/domain"
)

// ArticleRepository persists knowledge-base articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	Update(ctx context.Context, article *domain.Article) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	List(ctx context.Context, publishedOnly bool) ([]domain.Article, error)
}

type articleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository instantiates the repository.
func NewArticleRepository(pool *pgxpool.Pool) ArticleRepository {
	return &articleRepository{pool: pool}
}

const articleColumns = `id, title, content, status, author_id, created_at, updated_at`

func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	const query = `
        INSERT INTO kb_articles (title, content, status, author_id)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		article.Title,
		article.Content,
		article.Status,
		article.AuthorID,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
}

func (r *articleRepository) Update(ctx context.Context, article *domain.Article) error {
	const query = `
        UPDATE kb_articles SET title=$1, content=$2, status=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		article.Title,
		article.Content,
		article.Status,
		article.ID,
	).Scan(&article.UpdatedAt)
}

func (r *articleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM kb_articles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	const query = `SELECT ` + articleColumns + ` FROM kb_articles WHERE id=$1`
	var article domain.Article
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&article.Status,
		&article.AuthorID,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, publishedOnly bool) ([]domain.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM kb_articles`
	if publishedOnly {
		query += ` WHERE status='PUBLISHED'`
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Article{}
	for rows.Next() {
		var article domain.Article
		if err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.Content,
			&article.Status,
			&article.AuthorID,
			&article.CreatedAt,
			&article.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, article)
	}
	return result, rows.Err()
}
