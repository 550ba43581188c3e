// Package dto provides Data Transfer Objects for API requests/responses.
// Entities carry their own json tags, so read endpoints return them directly;
// DTOs here shape the write requests, every one of which names the expected
// version it read.
package dto

import (
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain"
)

// ListQuery contains common list parameters.
type ListQuery struct {
	Search          string  `form:"search"`
	Status          *string `form:"status"`
	AssignedAnalyst *string `form:"assignedAnalyst"`
	IncludeDeleted  bool    `form:"includeDeleted"`
	OrderBy         string  `form:"orderBy"`
	Limit           int     `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset          int     `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts query parameters to a domain filter.
func (q *ListQuery) ToFilter() domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.Search = q.Search
	filter.Status = q.Status
	filter.AssignedAnalyst = q.AssignedAnalyst
	filter.IncludeDeleted = q.IncludeDeleted
	if q.OrderBy != "" {
		filter.OrderBy = q.OrderBy
	}
	if q.Limit > 0 {
		filter.Limit = q.Limit
	}
	filter.Offset = q.Offset
	return filter
}

// IDResponse for create operations.
type IDResponse struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

// NewIDResponse creates an ID response.
func NewIDResponse(i id.ID, version int) IDResponse {
	return IDResponse{ID: i.String(), Version: version}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// AssignRequest routes a record to an analyst.
type AssignRequest struct {
	Analyst string `json:"analyst" binding:"required"`
	Version int    `json:"version" binding:"min=0"`
}

// VersionedRequest carries only the expected version (complete, delete).
type VersionedRequest struct {
	Version int `json:"version" binding:"min=0"`
}
