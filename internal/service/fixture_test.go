package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quickdesk/helpdesk-api/internal/config"
	"github.com/quickdesk/helpdesk-api/internal/domain"
	"github.com/quickdesk/helpdesk-api/internal/events"
	"github.com/quickdesk/helpdesk-api/internal/repository/memory"
	"github.com/quickdesk/helpdesk-api/internal/storage"
	apperrors "github.com/quickdesk/helpdesk-api/pkg/util/errorutil"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store      *memory.Store
	dispatcher events.Dispatcher
	published  *[]events.Event
	auth       *AuthService
	tickets    *TicketService
	categories *CategoryService
	users      *UserService
	upgrades   *UpgradeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.Event{}
	var mu sync.Mutex
	events.SubscribeAll(dispatcher, func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		*published = append(*published, e)
		return nil
	})
	logger := zap.NewNop()
	NewAuditService(dispatcher, store.TicketHistory(), logger).RegisterHandlers()
	files := storage.NewStorage(storage.NewLocalDisk(t.TempDir()))

	return &fixture{
		store:      store,
		dispatcher: dispatcher,
		published:  published,
		auth: NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4}, AuthDependencies{
			UserRepo: store.Users(),
			Logger:   logger,
			Clock:    clock.Now,
		}),
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:   store.Tickets(),
			CategoryRepo: store.Categories(),
			UserRepo:     store.Users(),
			HistoryRepo:  store.TicketHistory(),
			Attachments:  files,
			Dispatcher:   dispatcher,
			Logger:       logger,
			Clock:        clock.Now,
		}),
		categories: NewCategoryService(CategoryDependencies{
			CategoryRepo: store.Categories(),
			UserRepo:     store.Users(),
		}),
		users: NewUserService(UserDependencies{
			UserRepo:   store.Users(),
			Dispatcher: dispatcher,
			Logger:     logger,
			Clock:      clock.Now,
		}),
		upgrades: NewUpgradeService(UpgradeDependencies{
			UpgradeRepo: store.UpgradeRequests(),
			UserRepo:    store.Users(),
			Dispatcher:  dispatcher,
			Logger:      logger,
			Clock:       clock.Now,
		}),
	}
}

func (f *fixture) addUser(t *testing.T, name string, role domain.Role) domain.Identity {
	t.Helper()
	user := &domain.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "unused",
		Role:         role,
		Active:       true,
	}
	if err := f.store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return domain.IdentityOf(user)
}

func (f *fixture) addCategory(t *testing.T, name string) string {
	t.Helper()
	category := &domain.Category{Name: name, Color: domain.DefaultCategoryColor, Active: true}
	if err := f.store.Categories().Create(context.Background(), category); err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return category.ID
}

func (f *fixture) addTicket(t *testing.T, owner domain.Identity, categoryID, subject, description string) *TicketView {
	t.Helper()
	view, err := f.tickets.Create(context.Background(), owner, CreateTicketInput{
		Subject:     subject,
		Description: description,
		CategoryID:  categoryID,
	}, nil)
	if err != nil {
		t.Fatalf("create ticket %q: %v", subject, err)
	}
	return view
}

func (f *fixture) eventsOfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range *f.published {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func textUpload(name, body string) AttachmentUpload {
	return AttachmentUpload{
		Filename:    name,
		ContentType: "text/plain",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("err = %v (code %q), want %s", err, apperrors.ToDomainError(err).Code, code)
	}
}
