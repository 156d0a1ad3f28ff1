package transport

import "github.com/fastygo/users-api/domain"

// CreateUserRequest is the body of POST /usuarios/.
type CreateUserRequest struct {
	Name   string `json:"nombre" validate:"required,min=1,max=100"`
	Email  string `json:"email" validate:"required,simple_email"`
	Active *bool  `json:"activo"`
}

// Input converts the request into a domain input. activo defaults to true.
func (r CreateUserRequest) Input() domain.UserInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return domain.UserInput{Name: r.Name, Email: r.Email, Active: active}
}

// UpdateUserRequest is the body of PUT /usuarios/{id}; absent fields are left unchanged.
type UpdateUserRequest struct {
	Name   *string `json:"nombre" validate:"omitempty,min=1,max=100"`
	Email  *string `json:"email" validate:"omitempty,simple_email"`
	Active *bool   `json:"activo"`
}

func (r UpdateUserRequest) Patch() domain.UserPatch {
	return domain.UserPatch{Name: r.Name, Email: r.Email, Active: r.Active}
}

// ListUsersQuery holds the parsed query string of GET /usuarios/.
type ListUsersQuery struct {
	Skip       int `validate:"gte=0"`
	Limit      int `validate:"gte=1,lte=1000"`
	ActiveOnly bool
}
