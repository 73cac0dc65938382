package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"cetele/internal/database"
	"cetele/internal/models"
	"cetele/internal/repository"
	"cetele/internal/validation"
)

// fakePinHasher avoids bcrypt cost in tests
type fakePinHasher struct{}

func (fakePinHasher) HashPin(pin string) (string, error) {
	return "hashed:" + pin, nil
}

func (fakePinHasher) CheckPin(pin, hash string) bool {
	return hash == "hashed:"+pin
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type provisionTestEnv struct {
	db       *database.DB
	service  *ProvisionService
	userRepo *repository.UserRepository
	children *repository.ChildRepository
	codes    *repository.ActivationRepository
}

func newProvisionTestEnv(t *testing.T) *provisionTestEnv {
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
	activationRepo := repository.NewActivationRepository(db)

	return &provisionTestEnv{
		db: db,
		service: NewProvisionService(
			db, userRepo, childRepo, activationRepo,
			fakePinHasher{}, emailService, 72*time.Hour, log,
		),
		userRepo: userRepo,
		children: childRepo,
		codes:    activationRepo,
	}
}

func (env *provisionTestEnv) createParent(t *testing.T) *models.User {
	t.Helper()
	parent, err := env.userRepo.CreateUser(&models.User{
		Email:     "parent@example.com",
		FirstName: "Ayse",
		LastName:  "Yilmaz",
		Role:      models.RoleParent,
		Status:    models.StatusActive,
	})
	if err != nil {
		t.Fatalf("Failed to create parent: %v", err)
	}
	return parent
}

func TestWizardStepOrder(t *testing.T) {
	s := &ProvisionService{}

	fresh := s.StartWizard()
	if fresh.Step != StepInfo {
		t.Fatalf("StartWizard() step = %v, want StepInfo", fresh.Step)
	}

	if _, err := s.SubmitPin(fresh, "1234", "1234"); !errors.Is(err, ErrWrongStep) {
		t.Errorf("SubmitPin on info step: error = %v, want ErrWrongStep", err)
	}
	if _, err := s.Commit(fresh, 1); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Commit on info step: error = %v, want ErrWrongStep", err)
	}

	confirmed := ChildWizard{Step: StepConfirmed}
	if _, err := s.SubmitInfo(confirmed, "Ahmet", "Kaya", "ahmet", "4A"); !errors.Is(err, ErrWrongStep) {
		t.Errorf("SubmitInfo on confirmed step: error = %v, want ErrWrongStep", err)
	}
}

func TestWizardHappyPath(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newProvisionTestEnv(t)
	parent := env.createParent(t)

	w := env.service.StartWizard()

	w, err := env.service.SubmitInfo(w, "Ahmet", "Kaya", "  Ahmet2015 ", "4A")
	if err != nil {
		t.Fatalf("SubmitInfo() error = %v", err)
	}
	if w.Step != StepPin {
		t.Fatalf("SubmitInfo() step = %v, want StepPin", w.Step)
	}
	if w.Username != "ahmet2015" {
		t.Errorf("SubmitInfo() username = %q, want normalized %q", w.Username, "ahmet2015")
	}

	w, err = env.service.SubmitPin(w, "1234", "1234")
	if err != nil {
		t.Fatalf("SubmitPin() error = %v", err)
	}
	if w.Step != StepConfirmed {
		t.Fatalf("SubmitPin() step = %v, want StepConfirmed", w.Step)
	}

	result, err := env.service.Commit(w, parent.ID)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if result.Username != "ahmet2015" || result.Pin != "1234" {
		t.Errorf("Commit() result = %+v, want username ahmet2015 pin 1234", result)
	}

	child, err := env.userRepo.GetUserByID(result.ChildID)
	if err != nil || child == nil {
		t.Fatalf("GetUserByID() = %v, %v", child, err)
	}
	if child.Role != models.RoleChild || child.Status != models.StatusActive {
		t.Errorf("child role/status = %s/%s, want child/active", child.Role, child.Status)
	}
	if child.GroupClass != "4A" {
		t.Errorf("child group class = %q, want 4A", child.GroupClass)
	}

	linked, err := env.children.LinkExists(parent.ID, result.ChildID)
	if err != nil {
		t.Fatalf("LinkExists() error = %v", err)
	}
	if !linked {
		t.Error("Commit() did not create the parent link")
	}

	cred, err := env.children.GetCredentialByUsername("ahmet2015")
	if err != nil || cred == nil {
		t.Fatalf("GetCredentialByUsername() = %v, %v", cred, err)
	}
	if !(fakePinHasher{}).CheckPin("1234", cred.PinHash) {
		t.Error("stored pin hash does not verify")
	}
}

func TestSubmitInfoRejections(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newProvisionTestEnv(t)
	parent := env.createParent(t)

	// Occupy a username through the full flow
	w := env.service.StartWizard()
	w, _ = env.service.SubmitInfo(w, "Ahmet", "Kaya", "ahmet2015", "")
	w, _ = env.service.SubmitPin(w, "1234", "1234")
	if _, err := env.service.Commit(w, parent.ID); err != nil {
		t.Fatalf("setup commit failed: %v", err)
	}

	if _, err := env.db.Exec("INSERT INTO username_blocklist (word) VALUES (?)", "admin"); err != nil {
		t.Fatalf("Failed to seed blocklist: %v", err)
	}

	tests := []struct {
		name     string
		username string
		wantErr  error
	}{
		{"taken username", "ahmet2015", ErrUsernameTaken},
		{"taken username different case", "AHMET2015", ErrUsernameTaken},
		{"blocked username", "admin", ErrUsernameBlocked},
		{"blocked as substring", "cool_admin_42", ErrUsernameBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh := env.service.StartWizard()
			got, err := env.service.SubmitInfo(fresh, "Zeynep", "Demir", tt.username, "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SubmitInfo() error = %v, want %v", err, tt.wantErr)
			}
			if got.Step != StepInfo {
				t.Errorf("SubmitInfo() step = %v, want StepInfo", got.Step)
			}
		})
	}

	t.Run("invalid username format", func(t *testing.T) {
		fresh := env.service.StartWizard()
		var validationErr validation.ValidationError
		_, err := env.service.SubmitInfo(fresh, "Zeynep", "Demir", "no spaces!", "")
		if !errors.As(err, &validationErr) {
			t.Errorf("SubmitInfo() error = %v, want validation error", err)
		}
	})
}

func TestSubmitPinMismatch(t *testing.T) {
	env := &ProvisionService{}

	w := ChildWizard{Step: StepPin}
	got, err := env.SubmitPin(w, "1234", "9999")
	if !errors.Is(err, ErrPinMismatch) {
		t.Errorf("SubmitPin() error = %v, want ErrPinMismatch", err)
	}
	if got.Step != StepPin {
		t.Errorf("SubmitPin() step = %v, want StepPin", got.Step)
	}

	var validationErr validation.ValidationError
	if _, err := env.SubmitPin(w, "12", "12"); !errors.As(err, &validationErr) {
		t.Errorf("SubmitPin() short pin error = %v, want validation error", err)
	}
}

func TestCommitUsernameConflict(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newProvisionTestEnv(t)
	parent := env.createParent(t)

	// Two wizards pass the info step before either commits
	w1 := env.service.StartWizard()
	w1, _ = env.service.SubmitInfo(w1, "Ahmet", "Kaya", "ahmet2015", "")
	w1, _ = env.service.SubmitPin(w1, "1234", "1234")

	w2 := env.service.StartWizard()
	w2, _ = env.service.SubmitInfo(w2, "Mehmet", "Kara", "ahmet2015", "")
	w2, _ = env.service.SubmitPin(w2, "5678", "5678")

	if _, err := env.service.Commit(w1, parent.ID); err != nil {
		t.Fatalf("first Commit() error = %v", err)
	}
	if _, err := env.service.Commit(w2, parent.ID); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("second Commit() error = %v, want ErrUsernameTaken", err)
	}

	// The losing commit must leave nothing behind
	var count int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = ?", models.RoleChild).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("child user count = %d, want 1", count)
	}
}

func TestActivateLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newProvisionTestEnv(t)
	ctx := context.Background()

	child, activation, err := env.service.CreateChildWithCode(ctx, "Ahmet", "Kaya", "", "4A")
	if err != nil {
		t.Fatalf("CreateChildWithCode() error = %v", err)
	}
	if child.Status != models.StatusPending {
		t.Fatalf("new child status = %s, want pending", child.Status)
	}

	t.Run("unknown code", func(t *testing.T) {
		if _, err := env.service.Activate("XXXX-XXXX", "password123", "password123"); !errors.Is(err, ErrCodeNotFound) {
			t.Errorf("Activate() error = %v, want ErrCodeNotFound", err)
		}
	})

	t.Run("password mismatch", func(t *testing.T) {
		var validationErr validation.ValidationError
		_, err := env.service.Activate(activation.Code, "password123", "password456")
		if !errors.As(err, &validationErr) {
			t.Errorf("Activate() error = %v, want validation error", err)
		}
	})

	t.Run("successful activation", func(t *testing.T) {
		activated, err := env.service.Activate(activation.Code, "password123", "password123")
		if err != nil {
			t.Fatalf("Activate() error = %v", err)
		}
		if activated.Status != models.StatusActive {
			t.Errorf("activated status = %s, want active", activated.Status)
		}

		stored, err := env.userRepo.GetUserByID(child.ID)
		if err != nil || stored == nil {
			t.Fatalf("GetUserByID() = %v, %v", stored, err)
		}
		if stored.Status != models.StatusActive {
			t.Errorf("stored status = %s, want active", stored.Status)
		}
		if stored.PasswordHash == "" {
			t.Error("password hash not set after activation")
		}
	})

	t.Run("code cannot be reused", func(t *testing.T) {
		if _, err := env.service.Activate(activation.Code, "otherpass123", "otherpass123"); !errors.Is(err, ErrCodeUsed) {
			t.Errorf("Activate() error = %v, want ErrCodeUsed", err)
		}
	})
}

func TestActivateExpiredCode(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newProvisionTestEnv(t)

	child, err := env.userRepo.CreateUser(&models.User{
		FirstName: "Ahmet",
		Role:      models.RoleChild,
		Status:    models.StatusPending,
	})
	if err != nil {
		t.Fatalf("Failed to create child: %v", err)
	}

	activation, err := env.codes.CreateCode("TEST-1234", child.ID, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Failed to create code: %v", err)
	}

	if _, err := env.service.Activate(activation.Code, "password123", "password123"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("Activate() error = %v, want ErrCodeExpired", err)
	}

	// An expired attempt must not consume the code or touch the account
	stored, err := env.codes.GetByCode(activation.Code)
	if err != nil || stored == nil {
		t.Fatalf("GetByCode() = %v, %v", stored, err)
	}
	if stored.IsUsed() {
		t.Error("expired code was marked used")
	}

	account, err := env.userRepo.GetUserByID(child.ID)
	if err != nil || account == nil {
		t.Fatalf("GetUserByID() = %v, %v", account, err)
	}
	if account.Status != models.StatusPending {
		t.Errorf("account status = %s, want pending", account.Status)
	}
	if account.PasswordHash != "" {
		t.Error("password hash set by failed activation")
	}
}

func TestCreateChildWithCodeEmailTaken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newProvisionTestEnv(t)
	env.createParent(t)

	_, _, err := env.service.CreateChildWithCode(context.Background(), "Ahmet", "Kaya", "parent@example.com", "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("CreateChildWithCode() error = %v, want ErrEmailTaken", err)
	}

	var count int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = ?", models.RoleChild).Scan(&count); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 0 {
		t.Errorf("child user count = %d, want 0", count)
	}
}

func TestActivateNormalizesCode(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newProvisionTestEnv(t)

	child, _, err := env.service.CreateChildWithCode(context.Background(), "Ahmet", "Kaya", "", "")
	if err != nil {
		t.Fatalf("CreateChildWithCode() error = %v", err)
	}

	stored, err := env.codes.GetAllCodes()
	if err != nil || len(stored) != 1 {
		t.Fatalf("GetAllCodes() = %v, %v", stored, err)
	}

	sloppy := "  " + strings.ToLower(stored[0].Code) + " "
	activated, err := env.service.Activate(sloppy, "password123", "password123")
	if err != nil {
		t.Fatalf("Activate() with sloppy code error = %v", err)
	}
	if activated.ID != child.ID {
		t.Errorf("Activate() returned user %d, want %d", activated.ID, child.ID)
	}
}
