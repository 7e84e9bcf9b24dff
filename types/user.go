package types

import "time"

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Password stores the argon2id hash of the user's password.
	// This field is never exposed in API responses.
	Password string `json:"-" db:"password"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserFields is the field table for User.
var UserFields = []Field[User]{
	{Name: "id", Kind: KindInt, NonNull: true, Column: "id", Ref: func(u *User) any { return &u.ID }},
	{Name: "createdAt", Kind: KindTime, NonNull: true, Column: "created_at", Ref: func(u *User) any { return &u.CreatedAt }},
	{Name: "updatedAt", Kind: KindTime, NonNull: true, Column: "updated_at", Ref: func(u *User) any { return &u.UpdatedAt }},
	{Name: "username", Kind: KindString, NonNull: true, Column: "username", Ref: func(u *User) any { return &u.Username }},
	{Name: "password", Kind: KindString, NonNull: true, Column: "password", Hidden: true, Ref: func(u *User) any { return &u.Password }},
}

// UsernamePasswordInput carries credentials for register and login.
type UsernamePasswordInput struct {
	Username string `json:"username" validate:"min=3"`
	Password string `json:"password" validate:"min=8"`
}

// FieldError reports a problem with a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// UserResponse is the result of register and login. Any entry in Errors
// means the operation failed.
type UserResponse struct {
	Errors []FieldError `json:"errors,omitempty"`
	User   *User        `json:"user,omitempty"`
}
