package docstore

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/utafrali/plantstore/internal/domain"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
)

// UserRepository implements repository.UserRepository on the document store.
type UserRepository struct {
	client *Client
}

// NewUserRepository creates a document-store user repository.
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// Create stores a new user. Email uniqueness is checked before the write
// since the store cannot enforce it.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(u.Email)

	existing, err := r.GetByEmail(ctx, u.Email)
	switch {
	case err == nil && existing != nil:
		return apperrors.AlreadyExists("user", "email", u.Email)
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return err
	}

	return r.client.send(ctx, "create user", http.MethodPost, "/users", newUserDoc(u), nil)
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var doc userDoc
	if err := r.client.get(ctx, "get user", "/users/"+url.PathEscape(id), nil, &doc); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(email)

	var docs []userDoc
	if err := r.client.get(ctx, "get user by email", "/users", url.Values{"email": {email}}, &docs); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, apperrors.NotFound("user", email)
	}
	return docs[0].toDomain(), nil
}

// Update replaces the stored user document.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(u.Email)

	err := r.client.send(ctx, "update user", http.MethodPut, "/users/"+url.PathEscape(u.ID), newUserDoc(u), nil)
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("user", u.ID)
	}
	return err
}
