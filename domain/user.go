package domain

import "time"

// User is the single persisted entity of the service.
type User struct {
	ID        int64      `json:"id"`
	Name      string     `json:"nombre"`
	Email     string     `json:"email"`
	Active    bool       `json:"activo"`
	CreatedAt time.Time  `json:"fecha_creacion"`
	UpdatedAt *time.Time `json:"fecha_actualizacion"`
}

func (u *User) IsActive() bool {
	return u != nil && u.Active
}

// UserInput carries the fields accepted when creating a user.
type UserInput struct {
	Name   string
	Email  string
	Active bool
}

// UserPatch carries a partial update; nil fields are left untouched.
type UserPatch struct {
	Name   *string
	Email  *string
	Active *bool
}

// Apply copies the present fields of the patch onto u.
func (p UserPatch) Apply(u *User) {
	if u == nil {
		return
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
}

// ChangesEmail reports whether the patch moves u to a different address.
func (p UserPatch) ChangesEmail(u *User) bool {
	return p.Email != nil && u != nil && *p.Email != u.Email
}
