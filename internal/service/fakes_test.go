package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/core-crm/internal/domain"
	"github.com/spec-kit/core-crm/internal/repository"
)

type fakeTicketRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Ticket
	now  time.Time
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: map[string]*domain.Ticket{}, now: time.Unix(1000, 0)}
}

func (f *fakeTicketRepo) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	ticket.ID = "t" + strconv.Itoa(f.seq)
	ticket.CreatedAt = f.tick()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	f.byID[ticket.ID] = &clone
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byID[id]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = ticket.Status
	stored.AssignedAgentID = ticket.AssignedAgentID
	stored.IsRead = ticket.IsRead
	stored.UpdatedAt = f.tick()
	ticket.UpdatedAt = stored.UpdatedAt
	return nil
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.Ticket{}
	for _, t := range f.byID {
		if !filter.Scope.All {
			if filter.Scope.ClientID != nil && t.ClientID != *filter.Scope.ClientID {
				continue
			}
			if filter.Scope.AgentID != nil && t.AssignedAgentID != nil && *t.AssignedAgentID != *filter.Scope.AgentID {
				continue
			}
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.UnreadOnly && t.IsRead {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

type fakeMessageRepo struct {
	mu      sync.Mutex
	seq     int
	msgs    []domain.TicketMessage
	tickets *fakeTicketRepo
	now     time.Time
}

func newFakeMessageRepo(tickets *fakeTicketRepo) *fakeMessageRepo {
	return &fakeMessageRepo{tickets: tickets, now: time.Unix(2000, 0)}
}

func (f *fakeMessageRepo) CreateWithStatus(ctx context.Context, msg *domain.TicketMessage, newStatus *domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets.mu.Lock()
	defer f.tickets.mu.Unlock()

	ticket, ok := f.tickets.byID[msg.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	f.seq++
	msg.ID = "m" + strconv.Itoa(f.seq)
	f.now = f.now.Add(time.Second)
	msg.CreatedAt = f.now
	f.msgs = append(f.msgs, *msg)
	if newStatus != nil {
		ticket.Status = *newStatus
		ticket.UpdatedAt = f.tickets.tick()
	}
	return nil
}

func (f *fakeMessageRepo) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.TicketMessage{}
	for _, m := range f.msgs {
		if m.TicketID != ticketID {
			continue
		}
		if m.IsInternalNote && !includeInternal {
			continue
		}
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type fakeUserRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{byID: map[string]*domain.User{}}
	for _, u := range users {
		clone := *u
		repo.byID[u.ID] = &clone
	}
	return repo
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *user
	f.byID[user.ID] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByExternalIdentityID(ctx context.Context, externalID string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.ExternalIdentityID == externalID {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	u.Role = role
	clone := *u
	return &clone, nil
}

type fakeArticleRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*domain.Article
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{byID: map[string]*domain.Article{}}
}

func (f *fakeArticleRepo) Create(ctx context.Context, article *domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	article.ID = "kb" + strconv.Itoa(f.seq)
	article.CreatedAt = time.Unix(int64(3000+f.seq), 0)
	article.UpdatedAt = article.CreatedAt
	clone := *article
	f.byID[article.ID] = &clone
	return nil
}

func (f *fakeArticleRepo) Update(ctx context.Context, article *domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[article.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title = article.Title
	stored.Content = article.Content
	stored.Status = article.Status
	stored.UpdatedAt = stored.UpdatedAt.Add(time.Second)
	article.UpdatedAt = stored.UpdatedAt
	return nil
}

func (f *fakeArticleRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeArticleRepo) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeArticleRepo) List(ctx context.Context, publishedOnly bool) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.Article{}
	for _, a := range f.byID {
		if publishedOnly && a.Status != domain.ArticleStatusPublished {
			continue
		}
		result = append(result, *a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}
