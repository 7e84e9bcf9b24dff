// Package graph builds the GraphQL schema and binds its root fields to the
// user and post services.
package graph

import (
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/lireddit/apiserver/types"
)

// NewSchema builds the executable schema backed by r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := objectFromFields("User", types.UserFields)
	postType := objectFromFields("Post", types.PostFields)

	fieldErrorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FieldError",
		Fields: graphql.Fields{
			"field": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(types.FieldError).Field, nil
				},
			},
			"message": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(types.FieldError).Message, nil
				},
			},
		},
	})

	userResponseType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UserResponse",
		Fields: graphql.Fields{
			"errors": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(fieldErrorType)),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					resp := p.Source.(types.UserResponse)
					if len(resp.Errors) == 0 {
						return nil, nil
					}
					return resp.Errors, nil
				},
			},
			"user": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					resp := p.Source.(types.UserResponse)
					if resp.User == nil {
						return nil, nil
					}
					return *resp.User, nil
				},
			},
		},
	})

	usernamePasswordInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UsernamePasswordInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"username": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	credentialsArgs := graphql.FieldConfigArgument{
		"options": &graphql.ArgumentConfig{Type: graphql.NewNonNull(usernamePasswordInput)},
	}
	idArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)}
	titleArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type:    userType,
				Resolve: r.observe("me", r.me),
			},
			"users": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(userType))),
				Resolve: r.observe("users", r.users),
			},
			"posts": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
				Resolve: r.observe("posts", r.posts),
			},
			"post": &graphql.Field{
				Type:    postType,
				Args:    graphql.FieldConfigArgument{"id": idArg},
				Resolve: r.observe("post", r.post),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type:    graphql.NewNonNull(userResponseType),
				Args:    credentialsArgs,
				Resolve: r.observe("register", r.register),
			},
			"login": &graphql.Field{
				Type:    graphql.NewNonNull(userResponseType),
				Args:    credentialsArgs,
				Resolve: r.observe("login", r.login),
			},
			"logout": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Resolve: r.observe("logout", r.logout),
			},
			"createPost": &graphql.Field{
				Type:    graphql.NewNonNull(postType),
				Args:    graphql.FieldConfigArgument{"title": titleArg},
				Resolve: r.observe("createPost", r.createPost),
			},
			"updatePost": &graphql.Field{
				Type:    postType,
				Args:    graphql.FieldConfigArgument{"id": idArg, "title": titleArg},
				Resolve: r.observe("updatePost", r.updatePost),
			},
			"deletePost": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"id": idArg},
				Resolve: r.observe("deletePost", r.deletePost),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

// objectFromFields generates a GraphQL object from an entity field table.
// Hidden fields are left out.
func objectFromFields[T any](name string, fields []types.Field[T]) *graphql.Object {
	gqlFields := graphql.Fields{}
	for _, f := range types.Exposed(fields) {
		gqlFields[f.Name] = &graphql.Field{
			Type: outputType(f.Kind, f.NonNull),
			Resolve: func(p graphql.ResolveParams) (any, error) {
				entity, ok := sourceAs[T](p.Source)
				if !ok {
					return nil, fmt.Errorf("%s.%s: unexpected source %T", name, f.Name, p.Source)
				}
				return f.Value(entity), nil
			},
		}
	}
	return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: gqlFields})
}

func outputType(kind types.Kind, nonNull bool) graphql.Output {
	var t graphql.Output
	switch kind {
	case types.KindInt:
		t = graphql.Int
	case types.KindTime:
		t = graphql.DateTime
	default:
		t = graphql.String
	}
	if nonNull {
		return graphql.NewNonNull(t)
	}
	return t
}

func sourceAs[T any](source any) (*T, bool) {
	switch v := source.(type) {
	case T:
		return &v, true
	case *T:
		return v, v != nil
	default:
		return nil, false
	}
}
