package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"myvetstudy/internal/domain"
	"myvetstudy/internal/permissions"
	"myvetstudy/internal/repository"
	"myvetstudy/internal/utils"
	"myvetstudy/internal/utils/blacklist"
	"myvetstudy/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already exists")
	ErrRoleTooHigh        = errors.New("cannot create a member with a role above your own")
	ErrSelfBan            = errors.New("cannot ban yourself")
	ErrInvalidArgument    = errors.New("invalid argument")
)

const defaultBanTTL = 30 * 24 * time.Hour

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context, page, pageSize int, filter repository.ListUsersFilter) ([]*domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
}

// StaffService runs the staff directory and session operations shared by
// the gRPC and REST transports.
type StaffService struct {
	users     UserRepository
	blacklist blacklist.Blacklist
	model     *permissions.Model
	secretKey string
	tokenTTL  time.Duration
	banTTL    time.Duration
}

func NewStaffService(users UserRepository, bl blacklist.Blacklist, model *permissions.Model, secretKey string, tokenTTL time.Duration) *StaffService {
	return &StaffService{
		users:     users,
		blacklist: bl,
		model:     model,
		secretKey: secretKey,
		tokenTTL:  tokenTTL,
		banTTL:    defaultBanTTL,
	}
}

type LoginResult struct {
	Token     string
	ExpiresIn time.Duration
	Role      domain.Role
}

func (s *StaffService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := utils.VerifyPassword(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.blacklist.CheckUser(ctx, user.ID); err != nil {
		return nil, err
	}

	token, _, err := utils.GenerateToken(utils.TokenParams{UserID: user.ID, Role: user.Role}, s.secretKey, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	logger.Logger.Info("User logged in", zap.String("user_id", user.ID), zap.String("role", user.Role.String()))
	return &LoginResult{Token: token, ExpiresIn: s.tokenTTL, Role: user.Role}, nil
}

// Logout revokes the caller's current token until it would have expired.
func (s *StaffService) Logout(ctx context.Context, p utils.Principal) error {
	ttl := time.Until(p.ExpiresAt)
	if p.ExpiresAt.IsZero() {
		ttl = s.tokenTTL
	}
	return s.blacklist.RevokeToken(ctx, p.TokenID, ttl)
}

type Profile struct {
	User        *domain.User
	Permissions []domain.Permission
}

func (s *StaffService) Profile(ctx context.Context, p utils.Principal) (*Profile, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Permissions: s.model.PermissionsForRole(user.Role)}, nil
}

type ProfileUpdate struct {
	Name     *string
	Password *string
}

// UpdateProfile changes the caller's own name or password. The role is never
// touched.
func (s *StaffService) UpdateProfile(ctx context.Context, p utils.Principal, in ProfileUpdate) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidArgument)
		}
		hashed, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = hashed
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

type NewStaffMember struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// CreateStaffMember adds a user to the creator's practice. The creator may
// not hand out a role that ranks above their own.
func (s *StaffService) CreateStaffMember(ctx context.Context, creator utils.Principal, in NewStaffMember) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidArgument)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, domain.ErrUnknownRole)
	}
	if s.model.IsRoleHigherThan(in.Role, creator.Role) {
		return nil, ErrRoleTooHigh
	}

	owner, err := s.users.FindByID(ctx, creator.UserID)
	if err != nil {
		return nil, fmt.Errorf("find creator: %w", err)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:      email,
		Password:   hashed,
		Name:       strings.TrimSpace(in.Name),
		PracticeID: owner.PracticeID,
		Role:       in.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	logger.Logger.Info("Staff member created",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role.String()),
		zap.String("created_by", creator.UserID),
	)
	return user, nil
}

type StaffPage struct {
	Users []*domain.User
	Total int
}

// ListStaff lists members of the caller's practice.
func (s *StaffService) ListStaff(ctx context.Context, caller utils.Principal, page, pageSize int, filter repository.ListUsersFilter) (*StaffPage, error) {
	owner, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("find caller: %w", err)
	}
	filter.PracticeID = owner.PracticeID

	users, total, err := s.users.ListUsers(ctx, page, pageSize, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &StaffPage{Users: users, Total: total}, nil
}

// BanUser blocks a member of the caller's practice from logging in and
// invalidates their existing tokens.
func (s *StaffService) BanUser(ctx context.Context, caller utils.Principal, userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: user_id is required", ErrInvalidArgument)
	}
	if userID == caller.UserID {
		return ErrSelfBan
	}
	owner, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		return fmt.Errorf("find caller: %w", err)
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	// Users of other practices are reported as missing.
	if user.PracticeID != owner.PracticeID {
		return repository.ErrNotFound
	}
	if err := s.blacklist.BanUser(ctx, user.ID, s.banTTL); err != nil {
		return err
	}
	logger.Logger.Info("User banned", zap.String("user_id", user.ID), zap.String("banned_by", caller.UserID))
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Bootstrap creates the first practice manager of a practice when no user
// with that email exists yet. An empty password is replaced by a random one
// that is logged once.
func (s *StaffService) Bootstrap(ctx context.Context, email, password, practiceID string) error {
	email = normalizeEmail(email)
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil
	}
	if password == "" {
		password = utils.GenerateRandomString(16)
		logger.Logger.Warn("Generated bootstrap password", zap.String("email", email), zap.String("password", password))
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Email:      email,
		Password:   hashed,
		Name:       "Practice Manager",
		PracticeID: practiceID,
		Role:       domain.PracticeManager,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("create practice manager: %w", err)
	}
	logger.Logger.Info("Bootstrapped practice manager", zap.String("user_id", user.ID), zap.String("practice_id", practiceID))
	return nil
}
