package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lireddit/apiserver/internal/store"
	"github.com/lireddit/apiserver/types"
)

// ErrInvalidInput wraps post input that fails validation.
var ErrInvalidInput = errors.New("invalid input")

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	List(ctx context.Context) ([]types.Post, error)
	Get(ctx context.Context, id int) (types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
	Delete(ctx context.Context, id int) error
}

// PostService encapsulates post use-cases.
type PostService struct {
	repo   PostRepository
	events EventPublisher
	log    *slog.Logger
}

func NewPostService(repo PostRepository, events EventPublisher, log *slog.Logger) *PostService {
	if events == nil {
		events = NopPublisher{}
	}
	return &PostService{repo: repo, events: events, log: log}
}

func (s *PostService) Posts(rc RequestContext) ([]types.Post, error) {
	return s.repo.List(rc.Ctx)
}

// Post returns the post with id, or nil if it does not exist.
func (s *PostService) Post(rc RequestContext, id int) (*types.Post, error) {
	post, err := s.repo.Get(rc.Ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostService) CreatePost(rc RequestContext, input types.PostInput) (types.Post, error) {
	input, err := checkPostInput(input)
	if err != nil {
		return types.Post{}, err
	}

	post, err := s.repo.Create(rc.Ctx, types.Post{Title: input.Title})
	if err != nil {
		return types.Post{}, err
	}
	publishEvent(rc.Ctx, s.events, s.log, EventPostCreated, post.ID)
	return post, nil
}

// UpdatePost replaces the title of post id. It returns nil when the post
// does not exist.
func (s *PostService) UpdatePost(rc RequestContext, id int, input types.PostInput) (*types.Post, error) {
	input, err := checkPostInput(input)
	if err != nil {
		return nil, err
	}

	post, err := s.repo.Update(rc.Ctx, types.Post{ID: id, Title: input.Title})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// DeletePost removes post id and reports whether it existed.
func (s *PostService) DeletePost(rc RequestContext, id int) (bool, error) {
	if err := s.repo.Delete(rc.Ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	publishEvent(rc.Ctx, s.events, s.log, EventPostDeleted, id)
	return true, nil
}

func checkPostInput(input types.PostInput) (types.PostInput, error) {
	input.Title = strings.TrimSpace(input.Title)
	fieldErr, err := firstFieldError(input)
	if err != nil {
		return input, err
	}
	if fieldErr != nil {
		return input, fmt.Errorf("%w: %s", ErrInvalidInput, fieldErr.Message)
	}
	return input, nil
}
