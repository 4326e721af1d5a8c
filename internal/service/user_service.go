package service

import (
	"go-stockwise/internal/model"
	"go-stockwise/internal/store"
	"go-stockwise/pkg/validator"
)

type UserService interface {
	CreateUser(req *CreateUserRequest) (*model.UserResponse, error)
	UpdateUser(id string, patch *model.UserPatch) (*model.UserResponse, error)
	DeleteUser(id string) error
	GetUser(id string) (*model.UserResponse, error)
	ListUsers() ([]model.UserResponse, error)
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin staff user"`
	Status   string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type userService struct {
	store *store.Store
	auth  *authService
}

func NewUserService(st *store.Store) UserService {
	return &userService{
		store: st,
		auth:  &authService{store: st},
	}
}

func (s *userService) CreateUser(req *CreateUserRequest) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return nil, validationError(errs)
	}

	if existing, err := s.auth.findByUsername(req.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrUsernameTaken
	}
	if existing, err := s.auth.findByEmail(req.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}

	status := req.Status
	if status == "" {
		status = model.StatusActive
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
		Status:   status,
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

func (s *userService) UpdateUser(id string, patch *model.UserPatch) (*model.UserResponse, error) {
	if errs := validator.ValidateStruct(patch); len(errs) > 0 {
		return nil, validationError(errs)
	}

	if patch.Username != nil {
		existing, err := s.auth.findByUsername(*patch.Username)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrUsernameTaken
		}
	}
	if patch.Email != nil {
		existing, err := s.auth.findByEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != id {
			return nil, ErrEmailTaken
		}
	}

	// Plaintext comes in here and leaves as bcrypt; the stored record
	// never holds a raw password.
	if patch.Password != nil {
		var u model.User
		if err := u.SetPassword(*patch.Password); err != nil {
			return nil, err
		}
		patch.Password = &u.Password
	}

	ok, err := s.store.Update(store.TableUsers, id, patch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.GetUser(id)
}

func (s *userService) DeleteUser(id string) error {
	ok, err := s.store.Delete(store.TableUsers, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}

func (s *userService) GetUser(id string) (*model.UserResponse, error) {
	rec, err := s.store.GetByID(store.TableUsers, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}
	resp := rec.(*model.User).ToResponse()
	return &resp, nil
}

func (s *userService) ListUsers() ([]model.UserResponse, error) {
	records, err := s.store.GetAll(store.TableUsers)
	if err != nil {
		return nil, err
	}
	users := make([]model.UserResponse, 0, len(records))
	for _, rec := range records {
		users = append(users, rec.(*model.User).ToResponse())
	}
	return users, nil
}
