package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/lireddit/apiserver/internal/metrics"
	"github.com/lireddit/apiserver/internal/services"
	"github.com/lireddit/apiserver/internal/session"
	"github.com/lireddit/apiserver/types"
)

// SessionProvider returns the session bound to a request context.
type SessionProvider interface {
	For(ctx context.Context) session.Session
}

// Resolver is the root of every GraphQL field resolution.
type Resolver struct {
	userService *services.UserService
	postService *services.PostService
	sessions    SessionProvider
}

func NewResolver(users *services.UserService, posts *services.PostService, sessions SessionProvider) *Resolver {
	return &Resolver{userService: users, postService: posts, sessions: sessions}
}

func (r *Resolver) requestContext(p graphql.ResolveParams) services.RequestContext {
	return services.RequestContext{
		Ctx:     p.Context,
		Session: r.sessions.For(p.Context),
	}
}

func (r *Resolver) observe(field string, fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		result, err := fn(p)
		metrics.ObserveResolver(field, err)
		return result, err
	}
}

func (r *Resolver) me(p graphql.ResolveParams) (any, error) {
	user, err := r.userService.Me(r.requestContext(p))
	if err != nil || user == nil {
		return nil, err
	}
	return *user, nil
}

func (r *Resolver) users(p graphql.ResolveParams) (any, error) {
	return r.userService.Users(r.requestContext(p))
}

func (r *Resolver) register(p graphql.ResolveParams) (any, error) {
	input, err := credentialsArg(p.Args)
	if err != nil {
		return nil, err
	}
	return r.userService.Register(r.requestContext(p), input)
}

func (r *Resolver) login(p graphql.ResolveParams) (any, error) {
	input, err := credentialsArg(p.Args)
	if err != nil {
		return nil, err
	}
	return r.userService.Login(r.requestContext(p), input)
}

func (r *Resolver) logout(p graphql.ResolveParams) (any, error) {
	return r.userService.Logout(r.requestContext(p))
}

func (r *Resolver) posts(p graphql.ResolveParams) (any, error) {
	return r.postService.Posts(r.requestContext(p))
}

func (r *Resolver) post(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(int)
	post, err := r.postService.Post(r.requestContext(p), id)
	if err != nil || post == nil {
		return nil, err
	}
	return *post, nil
}

func (r *Resolver) createPost(p graphql.ResolveParams) (any, error) {
	title, _ := p.Args["title"].(string)
	return r.postService.CreatePost(r.requestContext(p), types.PostInput{Title: title})
}

func (r *Resolver) updatePost(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(int)
	title, _ := p.Args["title"].(string)
	post, err := r.postService.UpdatePost(r.requestContext(p), id, types.PostInput{Title: title})
	if err != nil || post == nil {
		return nil, err
	}
	return *post, nil
}

func (r *Resolver) deletePost(p graphql.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(int)
	return r.postService.DeletePost(r.requestContext(p), id)
}

func credentialsArg(args map[string]any) (types.UsernamePasswordInput, error) {
	options, ok := args["options"].(map[string]any)
	if !ok {
		return types.UsernamePasswordInput{}, errors.New("options is required")
	}
	username, ok := options["username"].(string)
	if !ok {
		return types.UsernamePasswordInput{}, fmt.Errorf("options.username: expected string, got %T", options["username"])
	}
	password, ok := options["password"].(string)
	if !ok {
		return types.UsernamePasswordInput{}, fmt.Errorf("options.password: expected string, got %T", options["password"])
	}
	return types.UsernamePasswordInput{Username: username, Password: password}, nil
}
