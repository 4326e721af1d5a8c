package service

import (
	"errors"
	"fmt"
	"time"

	"go-stockwise/internal/model"
	"go-stockwise/internal/session"
	"go-stockwise/internal/store"
	"go-stockwise/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type AuthService interface {
	Register(req *RegisterRequest) (*model.UserResponse, error)
	Login(username, password string, remember bool) (*model.AuthState, error)
	Logout()
	ChangePassword(userID, oldPassword, newPassword string) error
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
}

type authService struct {
	store    *store.Store
	sessions *session.Manager
}

func NewAuthService(st *store.Store, sessions *session.Manager) AuthService {
	return &authService{
		store:    st,
		sessions: sessions,
	}
}

// findByUsername matches exactly, unlike store criteria which match strings
// by substring. Account lookups must never match "admin" inside "superadmin".
func (s *authService) findByUsername(username string) (*model.User, error) {
	records, err := s.store.GetAll(store.TableUsers)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if user, ok := rec.(*model.User); ok && user.Username == username {
			return user, nil
		}
	}
	return nil, nil
}

func (s *authService) findByEmail(email string) (*model.User, error) {
	records, err := s.store.GetAll(store.TableUsers)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if user, ok := rec.(*model.User); ok && user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (s *authService) Register(req *RegisterRequest) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, fmt.Errorf("validation failed: field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	// Both uniqueness checks run before anything is written, so a taken
	// email never leaves a half-registered user behind.
	if existing, err := s.findByUsername(req.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.findByEmail(req.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     model.RoleUser,
		Status:   model.StatusActive,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if _, err := s.store.Insert(store.TableUsers, user); err != nil {
		return nil, err
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) Login(username, password string, remember bool) (*model.AuthState, error) {
	user, err := s.findByUsername(username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if user.Status != model.StatusActive {
		return nil, ErrUserInactive
	}

	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	loginAt := time.Now()
	if _, err := s.store.Update(store.TableUsers, user.ID, &model.UserPatch{LastLogin: &loginAt}); err != nil {
		return nil, err
	}

	return s.sessions.CreateSession(user.Snapshot(), remember)
}

func (s *authService) Logout() {
	s.sessions.ClearSession(session.ReasonUserLogout)
}

func (s *authService) ChangePassword(userID, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.New("new password must be at least 6 characters")
	}

	rec, err := s.store.GetByID(store.TableUsers, userID)
	if err != nil {
		return err
	}
	user, ok := rec.(*model.User)
	if !ok || user == nil {
		return ErrUserNotFound
	}

	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}

	if err := user.SetPassword(newPassword); err != nil {
		return err
	}

	_, err = s.store.Update(store.TableUsers, userID, &model.UserPatch{Password: &user.Password})
	return err
}
