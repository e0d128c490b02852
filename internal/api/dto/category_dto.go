package dto

import (
	"time"

	"github.com/quickdesk/helpdesk-api/internal/service"
)

// CategoryRequest payload for creating and updating categories.
type CategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	IsActive    *bool   `json:"isActive"`
}

// CategoryResponse is the public view of a category.
type CategoryResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Color       string           `json:"color"`
	IsActive    bool             `json:"isActive"`
	CreatedBy   *UserRefResponse `json:"createdBy"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// NewCategory converts a category view.
func NewCategory(view service.CategoryView) CategoryResponse {
	return CategoryResponse{
		ID:          view.ID,
		Name:        view.Name,
		Description: view.Description,
		Color:       view.Color,
		IsActive:    view.Active,
		CreatedBy:   NewUserRef(view.Creator),
		CreatedAt:   view.CreatedAt,
		UpdatedAt:   view.UpdatedAt,
	}
}

// NewCategories converts a list of category views.
func NewCategories(views []service.CategoryView) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(views))
	for _, view := range views {
		out = append(out, NewCategory(view))
	}
	return out
}
