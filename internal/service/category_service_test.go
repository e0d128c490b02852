package service

import (
	"context"
	"testing"

	"github.com/quickdesk/helpdesk-api/internal/domain"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser(t, "Root", domain.RoleAdmin)
	agent := f.addUser(t, "Cy", domain.RoleAgent)
	ctx := context.Background()

	created, err := f.categories.Create(ctx, admin, CategoryInput{Name: "Hardware", Description: "Printers"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Color != domain.DefaultCategoryColor {
		t.Fatalf("Color = %s, want default", created.Color)
	}
	if created.Creator == nil || created.Creator.ID != admin.ID {
		t.Fatalf("Creator = %+v, want %s", created.Creator, admin.ID)
	}

	_, err = f.categories.Create(ctx, admin, CategoryInput{Name: "hardware"})
	wantCode(t, err, apperrors.CodeConflict)
	_, err = f.categories.Create(ctx, admin, CategoryInput{Name: "Network", Color: "blue"})
	wantCode(t, err, apperrors.CodeValidation)
	_, err = f.categories.Create(ctx, agent, CategoryInput{Name: "Network"})
	wantCode(t, err, apperrors.CodeForbidden)

	if err := f.categories.Delete(ctx, admin, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	active, err := f.categories.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() error = %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("ListActive() = %d, want 0 after delete", len(active))
	}

	reactivate := true
	color := "#112233"
	updated, err := f.categories.Update(ctx, admin, created.ID, CategoryUpdate{Name: "Hardware", Color: &color, Active: &reactivate})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.Active || updated.Color != color {
		t.Fatalf("updated = %+v", updated.Category)
	}
	if updated.Description != "Printers" {
		t.Fatalf("Description = %q, want kept", updated.Description)
	}

	err = f.categories.Delete(ctx, admin, "missing")
	wantCode(t, err, apperrors.CodeNotFound)
}
