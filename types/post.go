package types

import "time"

// Post is a link or text submission.
type Post struct {
	ID        int       `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PostFields is the field table for Post.
var PostFields = []Field[Post]{
	{Name: "id", Kind: KindInt, NonNull: true, Column: "id", Ref: func(p *Post) any { return &p.ID }},
	{Name: "createdAt", Kind: KindTime, NonNull: true, Column: "created_at", Ref: func(p *Post) any { return &p.CreatedAt }},
	{Name: "updatedAt", Kind: KindTime, NonNull: true, Column: "updated_at", Ref: func(p *Post) any { return &p.UpdatedAt }},
	{Name: "title", Kind: KindString, NonNull: true, Column: "title", Ref: func(p *Post) any { return &p.Title }},
}

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title string `json:"title" validate:"required,max=255"`
}
