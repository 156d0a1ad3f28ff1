// Package repotest holds the behaviour every repository.UserRepository driver must share.
package repotest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/repository"
)

// UserRepositorySuite runs against a fresh, empty store for each test.
type UserRepositorySuite struct {
	suite.Suite

	// NewRepository must return an empty repository.
	NewRepository func() repository.UserRepository

	repo repository.UserRepository
	ctx  context.Context
}

func (s *UserRepositorySuite) SetupTest() {
	s.repo = s.NewRepository()
	s.ctx = context.Background()
}

func (s *UserRepositorySuite) create(name, email string, active bool) *domain.User {
	user, err := s.repo.Create(s.ctx, domain.UserInput{Name: name, Email: email, Active: active})
	s.Require().NoError(err)
	return user
}

func (s *UserRepositorySuite) TestCreateAssignsIdentity() {
	before := time.Now().Add(-time.Minute)
	first := s.create("Ana", "ana@example.com", true)
	second := s.create("Luis", "luis@example.com", false)

	s.Positive(first.ID)
	s.Greater(second.ID, first.ID)
	s.True(first.CreatedAt.After(before))
	s.Nil(first.UpdatedAt)
	s.False(second.Active)
}

func (s *UserRepositorySuite) TestCreateDuplicateEmail() {
	s.create("Ana", "ana@example.com", true)

	_, err := s.repo.Create(s.ctx, domain.UserInput{Name: "Otra", Email: "ana@example.com", Active: true})
	s.Require().Error(err)
	s.True(domain.IsDomainError(err, domain.ErrCodeStore))
	s.ErrorIs(err, domain.ErrEmailTaken)
}

func (s *UserRepositorySuite) TestGetByIDAndEmail() {
	created := s.create("Ana", "ana@example.com", true)

	byID, err := s.repo.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Email, byID.Email)

	byEmail, err := s.repo.GetByEmail(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(created.ID, byEmail.ID)

	_, err = s.repo.GetByID(s.ctx, created.ID+100)
	s.ErrorIs(err, domain.ErrUserNotFound)

	_, err = s.repo.GetByEmail(s.ctx, "nadie@example.com")
	s.ErrorIs(err, domain.ErrUserNotFound)
}

func (s *UserRepositorySuite) TestListOrdersAndPages() {
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"} {
		s.create("User", email, email != "b@example.com")
	}

	all, err := s.repo.List(s.ctx, repository.UserFilter{Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(all, 4)
	for i := 1; i < len(all); i++ {
		s.Less(all[i-1].ID, all[i].ID)
	}

	page, err := s.repo.List(s.ctx, repository.UserFilter{Offset: 1, Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(all[1].ID, page[0].ID)
	s.Equal(all[2].ID, page[1].ID)

	active, err := s.repo.List(s.ctx, repository.UserFilter{Limit: 10, ActiveOnly: true})
	s.Require().NoError(err)
	s.Len(active, 3)
	for _, u := range active {
		s.True(u.Active)
	}

	empty, err := s.repo.List(s.ctx, repository.UserFilter{Offset: 50, Limit: 10})
	s.Require().NoError(err)
	s.NotNil(empty)
	s.Empty(empty)
}

func (s *UserRepositorySuite) TestUpdateAppliesPresentFields() {
	created := s.create("Ana", "ana@example.com", true)

	name := "Ana María"
	updated, err := s.repo.Update(s.ctx, created, domain.UserPatch{Name: &name})
	s.Require().NoError(err)
	s.Equal("Ana María", updated.Name)
	s.Equal("ana@example.com", updated.Email)
	s.True(updated.Active)
	s.Require().NotNil(updated.UpdatedAt)
	s.Equal(created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	email := "ana.maria@example.com"
	inactive := false
	updated, err = s.repo.Update(s.ctx, updated, domain.UserPatch{Email: &email, Active: &inactive})
	s.Require().NoError(err)
	s.Equal(email, updated.Email)
	s.False(updated.Active)

	_, err = s.repo.GetByEmail(s.ctx, "ana@example.com")
	s.ErrorIs(err, domain.ErrUserNotFound)
	found, err := s.repo.GetByEmail(s.ctx, email)
	s.Require().NoError(err)
	s.Equal(created.ID, found.ID)
}

func (s *UserRepositorySuite) TestUpdateDuplicateEmail() {
	s.create("Ana", "ana@example.com", true)
	luis := s.create("Luis", "luis@example.com", true)

	taken := "ana@example.com"
	_, err := s.repo.Update(s.ctx, luis, domain.UserPatch{Email: &taken})
	s.Require().Error(err)
	s.ErrorIs(err, domain.ErrEmailTaken)
}

func (s *UserRepositorySuite) TestUpdateMissing() {
	name := "Fantasma"
	_, err := s.repo.Update(s.ctx, &domain.User{ID: 999}, domain.UserPatch{Name: &name})
	s.ErrorIs(err, domain.ErrUserNotFound)
}

func (s *UserRepositorySuite) TestDeleteReturnsRecord() {
	created := s.create("Ana", "ana@example.com", true)

	deleted, err := s.repo.Delete(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, deleted.ID)
	s.Equal("ana@example.com", deleted.Email)

	_, err = s.repo.GetByID(s.ctx, created.ID)
	s.ErrorIs(err, domain.ErrUserNotFound)

	_, err = s.repo.Delete(s.ctx, created.ID)
	s.ErrorIs(err, domain.ErrUserNotFound)

	// the address is free again
	s.create("Ana", "ana@example.com", true)
}

func (s *UserRepositorySuite) TestScopeAndPing() {
	ctx, release := s.repo.Scope(s.ctx)
	defer release()

	s.Require().NoError(s.repo.Ping(ctx))
	user, err := s.repo.Create(ctx, domain.UserInput{Name: "Ana", Email: "ana@example.com", Active: true})
	s.Require().NoError(err)
	got, err := s.repo.GetByID(ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
}
