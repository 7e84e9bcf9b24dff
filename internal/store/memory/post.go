package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lireddit/apiserver/internal/store"
	"github.com/lireddit/apiserver/types"
)

type PostRepository struct {
	mu     sync.RWMutex
	posts  map[int]types.Post
	nextID int
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]types.Post),
		nextID: 1,
	}
}

func (r *PostRepository) List(ctx context.Context) ([]types.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	posts := make([]types.Post, 0, len(r.posts))
	for _, p := range r.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

func (r *PostRepository) Get(ctx context.Context, id int) (types.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	return p, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	post.ID = r.nextID
	post.CreatedAt = now
	post.UpdatedAt = now
	r.nextID++

	r.posts[post.ID] = post
	return post, nil
}

func (r *PostRepository) Update(ctx context.Context, post types.Post) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.posts[post.ID]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	existing.Title = post.Title
	existing.UpdatedAt = time.Now().UTC()
	r.posts[post.ID] = existing
	return existing, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}
