package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"myvetstudy/internal/domain"
	"myvetstudy/internal/permissions"
	"myvetstudy/internal/repository"
	"myvetstudy/internal/utils"
	"myvetstudy/internal/utils/blacklist"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func setupService(t *testing.T) (*StaffService, *repository.UserRepository, *blacklist.Memory) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := repository.NewUserRepository(db)
	bl := blacklist.NewMemory()
	return NewStaffService(repo, bl, permissions.Default(), testSecret, time.Hour), repo, bl
}

func bootstrapManager(t *testing.T, svc *StaffService, repo *repository.UserRepository) utils.Principal {
	t.Helper()
	ctx := context.Background()
	if err := svc.Bootstrap(ctx, "Manager@Clinic.test", "manager-pass", "clinic-a"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	manager, err := repo.FindByEmail(ctx, "manager@clinic.test")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	return utils.Principal{UserID: manager.ID, Role: manager.Role}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	svc, repo, _ := setupService(t)
	bootstrapManager(t, svc, repo)
	if err := svc.Bootstrap(context.Background(), "manager@clinic.test", "other", "clinic-b"); err != nil {
		t.Fatalf("second Bootstrap() error = %v", err)
	}
	_, total, _ := repo.ListUsers(context.Background(), 1, 10, repository.ListUsersFilter{})
	if total != 1 {
		t.Errorf("users = %d, want 1", total)
	}
}

func TestLogin(t *testing.T) {
	svc, repo, bl := setupService(t)
	manager := bootstrapManager(t, svc, repo)
	ctx := context.Background()

	res, err := svc.Login(ctx, "manager@clinic.test", "manager-pass")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	_, role, err := utils.ParseAndValidateToken(res.Token, testSecret)
	if err != nil || role != domain.PracticeManager {
		t.Errorf("token role = %s, err %v", role, err)
	}

	if _, err := svc.Login(ctx, "manager@clinic.test", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, "nobody@clinic.test", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(unknown) error = %v, want ErrInvalidCredentials", err)
	}

	_ = bl.BanUser(ctx, manager.UserID, time.Hour)
	if _, err := svc.Login(ctx, "manager@clinic.test", "manager-pass"); !errors.Is(err, blacklist.ErrUserBanned) {
		t.Errorf("Login(banned) error = %v, want ErrUserBanned", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _, bl := setupService(t)
	ctx := context.Background()
	p := utils.Principal{UserID: "u1", Role: domain.PetOwner, TokenID: "jti-1", ExpiresAt: time.Now().Add(time.Minute)}
	if err := svc.Logout(ctx, p); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if err := bl.CheckToken(ctx, "jti-1"); !errors.Is(err, blacklist.ErrTokenRevoked) {
		t.Errorf("CheckToken() = %v, want ErrTokenRevoked", err)
	}
}

func TestCreateStaffMember(t *testing.T) {
	svc, repo, _ := setupService(t)
	manager := bootstrapManager(t, svc, repo)
	ctx := context.Background()

	vet, err := svc.CreateStaffMember(ctx, manager, NewStaffMember{
		Email: "vet@clinic.test", Password: "vet-password", Name: "Dr. Vet", Role: domain.Veterinarian,
	})
	if err != nil {
		t.Fatalf("CreateStaffMember() error = %v", err)
	}
	if vet.PracticeID != "clinic-a" {
		t.Errorf("PracticeID = %q, want creator's practice", vet.PracticeID)
	}

	vetPrincipal := utils.Principal{UserID: vet.ID, Role: vet.Role}

	tests := []struct {
		name    string
		creator utils.Principal
		in      NewStaffMember
		wantErr error
	}{
		{"duplicate email", manager, NewStaffMember{Email: "VET@clinic.test", Password: "long-enough", Role: domain.VetAssistant}, ErrEmailTaken},
		{"short password", manager, NewStaffMember{Email: "a@clinic.test", Password: "short", Role: domain.VetAssistant}, ErrInvalidArgument},
		{"missing email", manager, NewStaffMember{Password: "long-enough", Role: domain.VetAssistant}, ErrInvalidArgument},
		{"unknown role", manager, NewStaffMember{Email: "b@clinic.test", Password: "long-enough", Role: "groomer"}, ErrInvalidArgument},
		{"role above creator", vetPrincipal, NewStaffMember{Email: "c@clinic.test", Password: "long-enough", Role: domain.PracticeManager}, ErrRoleTooHigh},
		{"role below creator", vetPrincipal, NewStaffMember{Email: "d@clinic.test", Password: "long-enough", Role: domain.PetOwner}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateStaffMember(ctx, tt.creator, tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateStaffMember() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListStaffIsScopedToPractice(t *testing.T) {
	svc, repo, _ := setupService(t)
	manager := bootstrapManager(t, svc, repo)
	ctx := context.Background()

	if err := repo.Create(ctx, &domain.User{Email: "other@else.test", PracticeID: "clinic-b", Role: domain.Veterinarian}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateStaffMember(ctx, manager, NewStaffMember{Email: "desk@clinic.test", Password: "desk-password", Role: domain.Receptionist}); err != nil {
		t.Fatal(err)
	}

	page, err := svc.ListStaff(ctx, manager, 1, 10, repository.ListUsersFilter{})
	if err != nil {
		t.Fatalf("ListStaff() error = %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total = %d, want 2", page.Total)
	}
	for _, u := range page.Users {
		if u.PracticeID != "clinic-a" {
			t.Errorf("listed user from practice %q", u.PracticeID)
		}
	}
}

func TestBanUser(t *testing.T) {
	svc, repo, bl := setupService(t)
	manager := bootstrapManager(t, svc, repo)
	ctx := context.Background()

	desk, err := svc.CreateStaffMember(ctx, manager, NewStaffMember{Email: "desk@clinic.test", Password: "desk-password", Role: domain.Receptionist})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.BanUser(ctx, manager, manager.UserID); !errors.Is(err, ErrSelfBan) {
		t.Errorf("BanUser(self) error = %v, want ErrSelfBan", err)
	}
	if err := svc.BanUser(ctx, manager, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("BanUser(missing) error = %v, want ErrNotFound", err)
	}
	if err := svc.Bootstrap(ctx, "boss@other.test", "boss-password", "clinic-b"); err != nil {
		t.Fatal(err)
	}
	boss, err := repo.FindByEmail(ctx, "boss@other.test")
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.BanUser(ctx, manager, boss.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("BanUser(other practice) error = %v, want ErrNotFound", err)
	}
	if err := bl.CheckUser(ctx, boss.ID); err != nil {
		t.Errorf("CheckUser(other practice) = %v, want nil", err)
	}
	if _, err := svc.Login(ctx, "boss@other.test", "boss-password"); err != nil {
		t.Errorf("Login(other practice manager) error = %v", err)
	}

	if err := svc.BanUser(ctx, manager, desk.ID); err != nil {
		t.Fatalf("BanUser() error = %v", err)
	}
	if err := bl.CheckUser(ctx, desk.ID); !errors.Is(err, blacklist.ErrUserBanned) {
		t.Errorf("CheckUser() = %v, want ErrUserBanned", err)
	}
}

func TestProfile(t *testing.T) {
	svc, repo, _ := setupService(t)
	manager := bootstrapManager(t, svc, repo)

	profile, err := svc.Profile(context.Background(), manager)
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if len(profile.Permissions) != len(domain.Permissions()) {
		t.Errorf("manager has %d permissions, want all %d", len(profile.Permissions), len(domain.Permissions()))
	}
}

func TestUpdateProfileKeepsRole(t *testing.T) {
	svc, repo, _ := setupService(t)
	manager := bootstrapManager(t, svc, repo)
	ctx := context.Background()

	name := "Dr. Ada"
	password := "new-manager-pass"
	user, err := svc.UpdateProfile(ctx, manager, ProfileUpdate{Name: &name, Password: &password})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.Name != name || user.Role != domain.PracticeManager {
		t.Errorf("UpdateProfile() = %+v", user)
	}
	if _, err := svc.Login(ctx, "manager@clinic.test", password); err != nil {
		t.Errorf("Login(new password) error = %v", err)
	}

	short := "short"
	if _, err := svc.UpdateProfile(ctx, manager, ProfileUpdate{Password: &short}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("UpdateProfile(short password) error = %v, want ErrInvalidArgument", err)
	}
}

func TestBootstrapGeneratesPassword(t *testing.T) {
	svc, repo, _ := setupService(t)
	if err := svc.Bootstrap(context.Background(), "owner@clinic.test", "", "clinic-z"); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	user, err := repo.FindByEmail(context.Background(), "owner@clinic.test")
	if err != nil {
		t.Fatalf("FindByEmail() error = %v", err)
	}
	if user.Password == "" || utils.VerifyPassword(user.Password, "") == nil {
		t.Error("bootstrap user should get a generated password")
	}
}
