package domain

import (
	"errors"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	MessageFailedBodyRequest   = "failed to parse request body"
	MessageNotAuthenticated    = "not authenticated"
	MessageInternalServerError = "internal server error"
	MessageSuccessPing         = "pong"
	MessageSuccessHealth       = "all services reachable"
	MessageFailedHealth        = "one or more services unreachable"

	ErrParseUUID        = errors.New("failed to parse UUID")
	ErrUserNotAllowed   = errors.New("user not allowed")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("token invalid")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionStore     = errors.New("session store unavailable")
)

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
	}
}

// NormalizePage clamps page/limit query values to sane bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}
