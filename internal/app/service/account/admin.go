package account

import (
	"context"

	"github.com/brainac/backend/internal/models"
	"github.com/brainac/backend/internal/store"
	"github.com/brainac/backend/pkg/apperr"
	"github.com/brainac/backend/pkg/types"
)

const (
	defaultUserLimit = 10
	maxUserLimit     = 100
)

type UserListRequest struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Status string `form:"status"`
	Search string `form:"search"`
	Grade  int    `form:"grade"`
}

type UserPagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type UserListResponse struct {
	Users      []*models.User  `json:"users"`
	Pagination *UserPagination `json:"pagination"`
}

// ListUsers pages through stored users, newest first. Status "all" or empty
// keeps every status; search matches names and email.
func (s *Service) ListUsers(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	page := max(req.Page, 1)
	limit := req.Limit
	if limit <= 0 {
		limit = defaultUserLimit
	}
	limit = min(limit, maxUserLimit)

	q := store.UserQuery{
		Page:   store.Page{From: (page - 1) * limit, Size: limit},
		Search: req.Search,
		Grade:  req.Grade,
	}
	if req.Status != "" && req.Status != "all" {
		status := types.SubscriptionStatus(req.Status)
		if !status.Valid() {
			return nil, apperr.Validation("Invalid subscription status")
		}
		q.Status = status
	}
	users, total, err := s.users.ListUsers(ctx, q)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch users")
	}
	return &UserListResponse{
		Users: users,
		Pagination: &UserPagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: int((total + int64(limit) - 1) / int64(limit)),
		},
	}, nil
}
