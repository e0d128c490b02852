package domain

import "time"

// DefaultCategoryColor is applied when a category is created without a color.
const DefaultCategoryColor = "#007bff"

// Category groups tickets. Deleting a category only flips Active.
type Category struct {
	ID          string
	Name        string
	Description string
	Color       string
	CreatedBy   string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
