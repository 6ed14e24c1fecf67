package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/murilocaires/sistema-de-agendamento-de-espacos-universit-rios-sub002/internal/persistence"
)

const minPasswordLength = 8

// PasswordHasher derives a storable hash from a plaintext password.
type PasswordHasher func(password string) (string, error)

// UserService manages user accounts. All mutations are administrator only.
type UserService struct {
	users        persistence.UserRepository
	auditor      *Auditor
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for account management.
func NewUserService(users persistence.UserRepository, auditor *Auditor, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:        users,
		auditor:      auditor,
		hashPassword: HashPassword,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Create registers a new account with a freshly hashed password.
func (s *UserService) Create(ctx context.Context, params CreateUserParams) (user persistence.User, err error) {
	if s == nil || s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "Create", "actor_id", params.Actor.ID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID, "role", user.Role).InfoContext(ctx, "user created")
	}()

	if !params.Actor.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	input := params.Input
	vErr := &ValidationError{}
	validateUserInput(input, vErr)
	if input.Password == "" {
		vErr.add("password", "password is required")
	} else if len(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	hash, hashErr := s.hashPassword(input.Password)
	if hashErr != nil {
		err = hashErr
		return
	}

	now := s.now()
	user = persistence.User{
		ID:           s.idGenerator(),
		Name:         strings.TrimSpace(input.Name),
		Email:        normalizeEmail(input.Email),
		Role:         input.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.Disabled != nil {
		user.Disabled = *input.Disabled
	}

	persisted, createErr := s.users.CreateUser(ctx, user)
	if createErr != nil {
		if errors.Is(createErr, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
			return
		}
		err = createErr
		return
	}
	user = persisted
	user.PasswordHash = ""

	s.auditor.Record(ctx, params.Actor.ID, "user.create", "user", user.ID, string(user.Role))
	return
}

// Update changes account attributes. An empty password leaves the stored hash
// untouched.
func (s *UserService) Update(ctx context.Context, params UpdateUserParams) (user persistence.User, err error) {
	if s == nil || s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "Update", "actor_id", params.Actor.ID, "user_id", params.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user updated")
	}()

	if !params.Actor.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	existing, getErr := s.users.GetUser(ctx, params.UserID)
	if getErr != nil {
		err = mapNotFound(getErr)
		return
	}

	input := params.Input
	vErr := &ValidationError{}
	validateUserInput(input, vErr)
	if input.Password != "" && len(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must have at least %d characters", minPasswordLength))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.Email = normalizeEmail(input.Email)
	existing.Role = input.Role
	if input.Disabled != nil {
		existing.Disabled = *input.Disabled
	}
	if input.Password != "" {
		hash, hashErr := s.hashPassword(input.Password)
		if hashErr != nil {
			err = hashErr
			return
		}
		existing.PasswordHash = hash
	}
	existing.UpdatedAt = s.now()

	persisted, updateErr := s.users.UpdateUser(ctx, existing)
	if updateErr != nil {
		if errors.Is(updateErr, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
			return
		}
		err = mapNotFound(updateErr)
		return
	}
	user = persisted
	user.PasswordHash = ""

	s.auditor.Record(ctx, params.Actor.ID, "user.update", "user", user.ID, string(user.Role))
	return
}

// Delete removes an account. Administrators cannot delete themselves, which
// keeps at least the acting admin able to log in.
func (s *UserService) Delete(ctx context.Context, actor Actor, userID string) (err error) {
	if s == nil || s.users == nil {
		return fmt.Errorf("user repository not configured")
	}

	logger := s.loggerWith(ctx, "Delete", "actor_id", actor.ID, "user_id", userID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "user deleted")
	}()

	if !actor.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if actor.ID == userID {
		vErr := &ValidationError{}
		vErr.add("user_id", "administrators cannot delete their own account")
		err = vErr
		return
	}

	if err = s.users.DeleteUser(ctx, userID); err != nil {
		err = mapNotFound(err)
		return
	}

	s.auditor.Record(ctx, actor.ID, "user.delete", "user", userID, "")
	return
}

// Get returns a single account without its password hash.
func (s *UserService) Get(ctx context.Context, actor Actor, userID string) (persistence.User, error) {
	if s == nil || s.users == nil {
		return persistence.User{}, fmt.Errorf("user repository not configured")
	}
	if !actor.IsAdmin() && actor.ID != userID {
		return persistence.User{}, ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return persistence.User{}, mapNotFound(err)
	}
	user.PasswordHash = ""
	return user, nil
}

// List enumerates accounts for administrators, password hashes stripped.
func (s *UserService) List(ctx context.Context, actor Actor) ([]persistence.User, error) {
	if s == nil || s.users == nil {
		return nil, fmt.Errorf("user repository not configured")
	}
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func validateUserInput(input UserInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		vErr.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		vErr.add("email", "email is invalid")
	}
	if !input.Role.IsValid() {
		vErr.add("role", "role must be aluno, professor, coordenador or admin")
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
