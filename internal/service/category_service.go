package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/quickdesk/helpdesk-api/internal/auth"
	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/repository"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// CategoryService manages ticket categories.
type CategoryService struct {
	categories repository.CategoryRepository
	users      repository.UserRepository
}

// CategoryDependencies bundles repositories for the category service.
type CategoryDependencies struct {
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
}

// CategoryInput is the create payload.
type CategoryInput struct {
	Name        string
	Description string
	Color       string
}

// CategoryUpdate is the update payload. Nil fields keep their current value.
type CategoryUpdate struct {
	Name        string
	Description *string
	Color       *string
	Active      *bool
}

// CategoryView is a category with its creator populated.
type CategoryView struct {
	domain.Category
	Creator *domain.UserRef
}

// NewCategoryService constructs the service.
func NewCategoryService(deps CategoryDependencies) *CategoryService {
	return &CategoryService{categories: deps.CategoryRepo, users: deps.UserRepo}
}

// ListActive returns active categories sorted by name.
func (s *CategoryService) ListActive(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, translateRepoError(err, "category")
	}
	return s.populate(ctx, categories)
}

// Create adds a category. Admin only.
func (s *CategoryService) Create(ctx context.Context, identity domain.Identity, input CategoryInput) (*CategoryView, error) {
	if err := auth.Authorize(identity, auth.ActionManageCategories, nil).Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if runeLen(name) < 2 {
		return nil, validationFailed("name", "category name must be at least 2 characters")
	}
	color := strings.TrimSpace(input.Color)
	if color == "" {
		color = domain.DefaultCategoryColor
	}
	if !colorPattern.MatchString(color) {
		return nil, validationFailed("color", "color must be a #RRGGBB hex value")
	}

	category := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Color:       color,
		CreatedBy:   identity.ID,
		Active:      true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, categoryError(err)
	}
	return s.view(ctx, category)
}

// Update changes a category's fields, including reactivating it. Admin only.
func (s *CategoryService) Update(ctx context.Context, identity domain.Identity, id string, input CategoryUpdate) (*CategoryView, error) {
	if err := auth.Authorize(identity, auth.ActionManageCategories, nil).Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if runeLen(name) < 2 {
		return nil, validationFailed("name", "category name must be at least 2 characters")
	}
	if input.Color != nil && !colorPattern.MatchString(strings.TrimSpace(*input.Color)) {
		return nil, validationFailed("color", "color must be a #RRGGBB hex value")
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, "category")
	}
	category.Name = name
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		category.Color = strings.TrimSpace(*input.Color)
	}
	if input.Active != nil {
		category.Active = *input.Active
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, categoryError(err)
	}
	return s.view(ctx, category)
}

// Delete soft-deletes a category. Tickets keep referencing it. Admin only.
func (s *CategoryService) Delete(ctx context.Context, identity domain.Identity, id string) error {
	if err := auth.Authorize(identity, auth.ActionManageCategories, nil).Err(); err != nil {
		return err
	}
	if err := s.categories.SetActive(ctx, id, false); err != nil {
		return translateRepoError(err, "category")
	}
	return nil
}

func (s *CategoryService) view(ctx context.Context, category *domain.Category) (*CategoryView, error) {
	views, err := s.populate(ctx, []domain.Category{*category})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CategoryService) populate(ctx context.Context, categories []domain.Category) ([]CategoryView, error) {
	ids := make([]string, 0, len(categories))
	for _, category := range categories {
		if category.CreatedBy != "" {
			ids = append(ids, category.CreatedBy)
		}
	}
	refs, err := userRefs(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}
	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		views = append(views, CategoryView{Category: category, Creator: refs.lookup(category.CreatedBy)})
	}
	return views, nil
}

func categoryError(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return apperrors.NewConflict("category already exists", map[string]any{"field": "name"})
	}
	return translateRepoError(err, "category")
}

type refIndex map[string]domain.UserRef

func (r refIndex) lookup(id string) *domain.UserRef {
	if id == "" {
		return nil
	}
	ref, ok := r[id]
	if !ok {
		return nil
	}
	return &ref
}

func userRefs(ctx context.Context, users repository.UserRepository, ids []string) (refIndex, error) {
	index := refIndex{}
	if len(ids) == 0 || users == nil {
		return index, nil
	}
	loaded, err := users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, translateRepoError(err, "user")
	}
	for i := range loaded {
		index[loaded[i].ID] = loaded[i].Ref()
	}
	return index, nil
}
