package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cetele/internal/database"
	"cetele/internal/models"
	"cetele/internal/repository"
)

type adminTestEnv struct {
	db       *database.DB
	service  *AdminService
	auth     *AuthService
	userRepo *repository.UserRepository
	children *repository.ChildRepository
	requests *repository.LinkRequestRepository
	codes    *repository.ActivationRepository
}

func newAdminTestEnv(t *testing.T) *adminTestEnv {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	log := testLogger()
	emailService, err := NewEmailService("", "", "", log)
	if err != nil {
		t.Fatalf("Failed to create email service: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	childRepo := repository.NewChildRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	requestRepo := repository.NewLinkRequestRepository(db)
	activationRepo := repository.NewActivationRepository(db)

	return &adminTestEnv{
		db:      db,
		service: NewAdminService(db, userRepo, childRepo, requestRepo, activationRepo, emailService, log),
		auth: NewAuthService(userRepo, childRepo, sessionRepo, requestRepo,
			fakePinHasher{}, "test-admin-token", time.Hour, log),
		userRepo: userRepo,
		children: childRepo,
		requests: requestRepo,
		codes:    activationRepo,
	}
}

func (env *adminTestEnv) registerParent(t *testing.T, email string) (*models.User, *models.LinkRequest) {
	t.Helper()
	parent, err := env.auth.Register(email, "password123", "Ayse", "Yilmaz", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	request, err := env.requests.GetLatestForParent(parent.ID)
	if err != nil || request == nil {
		t.Fatalf("GetLatestForParent() = %v, %v", request, err)
	}
	return parent, request
}

func TestApproveRequest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newAdminTestEnv(t)
	ctx := context.Background()

	parent, request := env.registerParent(t, "parent@example.com")
	child, err := env.userRepo.CreateUser(&models.User{
		FirstName: "Ahmet",
		Role:      models.RoleChild,
		Status:    models.StatusActive,
	})
	if err != nil {
		t.Fatalf("Failed to create child: %v", err)
	}

	if err := env.service.ApproveRequest(ctx, request.ID, child.ID); err != nil {
		t.Fatalf("ApproveRequest() error = %v", err)
	}

	activated, err := env.userRepo.GetUserByID(parent.ID)
	if err != nil || activated == nil {
		t.Fatalf("GetUserByID() = %v, %v", activated, err)
	}
	if activated.Status != models.StatusActive {
		t.Errorf("parent status = %s, want active", activated.Status)
	}

	linked, err := env.children.LinkExists(parent.ID, child.ID)
	if err != nil {
		t.Fatalf("LinkExists() error = %v", err)
	}
	if !linked {
		t.Error("approval did not create the parent link")
	}

	reviewed, err := env.requests.GetRequest(request.ID)
	if err != nil || reviewed == nil {
		t.Fatalf("GetRequest() = %v, %v", reviewed, err)
	}
	if reviewed.Status != models.RequestApproved || reviewed.ReviewedAt == nil {
		t.Errorf("request = %+v, want approved with review time", reviewed)
	}

	t.Run("second approval conflicts", func(t *testing.T) {
		if err := env.service.ApproveRequest(ctx, request.ID, child.ID); !errors.Is(err, ErrAlreadyReviewed) {
			t.Errorf("ApproveRequest() error = %v, want ErrAlreadyReviewed", err)
		}
	})
}

func TestApproveRequestWithoutChild(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newAdminTestEnv(t)

	parent, request := env.registerParent(t, "parent@example.com")
	if err := env.service.ApproveRequest(context.Background(), request.ID, 0); err != nil {
		t.Fatalf("ApproveRequest() error = %v", err)
	}

	activated, _ := env.userRepo.GetUserByID(parent.ID)
	if activated.Status != models.StatusActive {
		t.Errorf("parent status = %s, want active", activated.Status)
	}

	children, err := env.children.GetChildrenForParent(parent.ID)
	if err != nil {
		t.Fatalf("GetChildrenForParent() error = %v", err)
	}
	if len(children) != 0 {
		t.Errorf("children = %v, want none", children)
	}
}

func TestApproveRequestRejections(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newAdminTestEnv(t)
	ctx := context.Background()

	parent, request := env.registerParent(t, "parent@example.com")

	t.Run("unknown request", func(t *testing.T) {
		if err := env.service.ApproveRequest(ctx, 99999, 0); !errors.Is(err, ErrRequestNotFound) {
			t.Errorf("ApproveRequest() error = %v, want ErrRequestNotFound", err)
		}
	})

	t.Run("unknown child", func(t *testing.T) {
		if err := env.service.ApproveRequest(ctx, request.ID, 99999); !errors.Is(err, ErrChildNotFound) {
			t.Errorf("ApproveRequest() error = %v, want ErrChildNotFound", err)
		}
	})

	t.Run("non-child account as child", func(t *testing.T) {
		if err := env.service.ApproveRequest(ctx, request.ID, parent.ID); !errors.Is(err, ErrChildNotFound) {
			t.Errorf("ApproveRequest() error = %v, want ErrChildNotFound", err)
		}
		// A failed pre-check must leave the request pending
		pending, _ := env.requests.GetRequest(request.ID)
		if pending.Status != models.RequestPending {
			t.Errorf("request status = %s, want still pending", pending.Status)
		}
	})
}

func TestRejectRequest(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newAdminTestEnv(t)

	parent, request := env.registerParent(t, "parent@example.com")
	if err := env.service.RejectRequest(request.ID); err != nil {
		t.Fatalf("RejectRequest() error = %v", err)
	}

	rejected, _ := env.requests.GetRequest(request.ID)
	if rejected.Status != models.RequestRejected {
		t.Errorf("request status = %s, want rejected", rejected.Status)
	}

	// A rejected parent stays pending and cannot open a dashboard session
	still, _ := env.userRepo.GetUserByID(parent.ID)
	if still.Status != models.StatusPending {
		t.Errorf("parent status = %s, want pending", still.Status)
	}

	if err := env.service.RejectRequest(request.ID); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("second RejectRequest() error = %v, want ErrAlreadyReviewed", err)
	}
	if err := env.service.RejectRequest(99999); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("RejectRequest() unknown id error = %v, want ErrRequestNotFound", err)
	}
}

func TestListPendingRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newAdminTestEnv(t)

	_, first := env.registerParent(t, "first@example.com")
	_, second := env.registerParent(t, "second@example.com")
	if err := env.service.RejectRequest(first.ID); err != nil {
		t.Fatalf("RejectRequest() error = %v", err)
	}

	pending, err := env.service.ListPendingRequests()
	if err != nil {
		t.Fatalf("ListPendingRequests() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("pending = %+v, want only the second request", pending)
	}
	if pending[0].ParentEmail != "second@example.com" {
		t.Errorf("ParentEmail = %q, want joined parent email", pending[0].ParentEmail)
	}
}

func TestListCodes(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newAdminTestEnv(t)

	child, err := env.userRepo.CreateUser(&models.User{
		FirstName: "Ahmet",
		Role:      models.RoleChild,
		Status:    models.StatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to create child: %v", err)
	}

	active, err := env.codes.CreateCode("TCC-AAAAA", child.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}
	expired, err := env.codes.CreateCode("TCC-BBBBB", child.ID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}
	used, err := env.codes.CreateCode("TCC-CCCCC", child.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateCode() error = %v", err)
	}
	if _, err := env.codes.MarkUsed(used.ID); err != nil {
		t.Fatalf("MarkUsed() error = %v", err)
	}

	views, err := env.service.ListCodes()
	if err != nil {
		t.Fatalf("ListCodes() error = %v", err)
	}
	states := map[string]CodeState{}
	for _, v := range views {
		states[v.Code] = v.State
	}
	if states[active.Code] != CodeActive {
		t.Errorf("state[%s] = %s, want active", active.Code, states[active.Code])
	}
	if states[expired.Code] != CodeExpired {
		t.Errorf("state[%s] = %s, want expired", expired.Code, states[expired.Code])
	}
	if states[used.Code] != CodeUsed {
		t.Errorf("state[%s] = %s, want used", used.Code, states[used.Code])
	}
}

func TestListChildren(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newAdminTestEnv(t)

	for _, name := range []string{"Ahmet", "Zeynep"} {
		if _, err := env.userRepo.CreateUser(&models.User{
			FirstName: name,
			Role:      models.RoleChild,
			Status:    models.StatusActive,
		}); err != nil {
			t.Fatalf("Failed to create child: %v", err)
		}
	}
	env.registerParent(t, "parent@example.com")

	all, err := env.service.ListChildren("")
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("children = %d, want 2 (parents excluded)", len(all))
	}

	filtered, err := env.service.ListChildren("zey")
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(filtered) != 1 || filtered[0].FirstName != "Zeynep" {
		t.Errorf("filtered = %+v, want only Zeynep", filtered)
	}
}
