package identity

import (
	"context"
	"time"

	"github.com/cobranzas/backend/internal/domain/identity"
	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/cobranzas/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles user management operations
type UserService struct {
	userRepo    identity.UserRepository
	revocations auth.RevocationList
	revokeTTL   time.Duration
	logger      *zap.Logger
}

// NewUserService creates a new user service. Deactivating a user revokes its
// tokens for revokeTTL, which should cover the refresh token lifetime.
func NewUserService(
	userRepo identity.UserRepository,
	revocations auth.RevocationList,
	revokeTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		revocations: revocations,
		revokeTTL:   revokeTTL,
		logger:      logger,
	}
}

// Create creates a new user
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Username is already taken")
	}

	user, err := identity.NewUser(req.Username, req.Password, identity.Role(req.Role))
	if err != nil {
		return nil, err
	}
	if err := user.SetEmail(req.Email); err != nil {
		return nil, err
	}
	if err := user.SetFullName(req.FullName); err != nil {
		return nil, err
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()))
	resp := ToUserResponse(user)
	return &resp, nil
}

// GetByID retrieves a user
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List retrieves users with filtering and pagination
func (s *UserService) List(ctx context.Context, filter UserListFilter) (shared.Paginated[UserResponse], error) {
	domainFilter := identity.UserFilter{
		Filter: listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search),
		Active: filter.Active,
	}
	if filter.Role != "" {
		role := identity.Role(filter.Role)
		domainFilter.Role = &role
	}

	users, total, err := s.userRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[UserResponse]{}, err
	}
	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = ToUserResponse(u)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// ListCollectors returns every active collector, ordered by username
func (s *UserService) ListCollectors(ctx context.Context) ([]UserResponse, error) {
	role := identity.RoleCollector
	active := true
	users, _, err := s.userRepo.FindAll(ctx, identity.UserFilter{
		Filter: shared.Filter{OrderBy: "username", OrderDir: "asc"},
		Role:   &role,
		Active: &active,
	})
	if err != nil {
		return nil, err
	}
	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = ToUserResponse(u)
	}
	return items, nil
}

// SetActive enables or disables a user. Disabling revokes every token the
// user holds; administrators cannot disable themselves.
func (s *UserService) SetActive(ctx context.Context, actor identity.Actor, id uuid.UUID, active bool) (*UserResponse, error) {
	if !active && actor.UserID == id {
		return nil, shared.NewValidationError("You cannot deactivate your own account")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Active == active {
		resp := ToUserResponse(user)
		return &resp, nil
	}

	if active {
		user.Activate()
	} else {
		user.Deactivate()
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}
	if !active && s.revocations != nil {
		if err := s.revocations.RevokeUser(ctx, user.ID, s.revokeTTL); err != nil {
			s.logger.Error("Failed to revoke tokens of deactivated user",
				zap.String("user_id", user.ID.String()), zap.Error(err))
		}
	}

	s.logger.Info("User status changed",
		zap.String("user_id", user.ID.String()),
		zap.Bool("active", active))
	resp := ToUserResponse(user)
	return &resp, nil
}

// listFilter builds a domain filter, applying paging defaults
func listFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	f.Search = search
	return f
}
