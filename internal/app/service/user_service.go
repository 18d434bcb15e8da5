package service

import (
	"context"
	"database/sql"
	"strings"

	"github.com/7rockstarmade/LogicModule/internal/common"
	"github.com/7rockstarmade/LogicModule/internal/common/permissions"
	"github.com/7rockstarmade/LogicModule/internal/domain/model"
	"github.com/7rockstarmade/LogicModule/internal/domain/repository"
)

type UserService struct {
	store *repository.Store
}

func NewUserService(store *repository.Store) *UserService {
	return &UserService{store: store}
}

type UpdateFullNameRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
}

type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required"`
}

type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

type RolesResponse struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

type BlockedResponse struct {
	UserID  string `json:"user_id"`
	Blocked bool   `json:"blocked"`
}

// normalizeRoles trims entries, drops empty ones and keeps the first
// occurrence of duplicates.
func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

func (s *UserService) Me(user *model.CurrentUser) *model.CurrentUser {
	return user
}

// Register stores the caller's identity bundle as a user row.
func (s *UserService) Register(ctx context.Context, user *model.CurrentUser) (*model.User, error) {
	if user.Blocked {
		return nil, common.ErrBlocked
	}
	u := &model.User{
		ID:       user.ID,
		Username: user.Username,
		FullName: strings.TrimSpace(user.FullName),
		Roles:    normalizeRoles(user.Roles),
	}
	if u.Username == "" {
		u.Username = user.ID
	}
	if user.Email != "" {
		email := user.Email
		u.Email = &email
	}
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.store.Users.Create(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) List(ctx context.Context, user *model.CurrentUser) ([]model.User, error) {
	if err := permissions.RequirePermission(user, permissions.UserListRead); err != nil {
		return nil, err
	}
	return s.store.Users.List(ctx, nil)
}

func (s *UserService) GetBasicInfo(ctx context.Context, user *model.CurrentUser, userID string) (*model.UserBasicInfo, error) {
	if user.Blocked {
		return nil, common.ErrBlocked
	}
	u, err := s.store.Users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return &model.UserBasicInfo{ID: u.ID, FullName: u.FullName}, nil
}

func (s *UserService) GetData(ctx context.Context, user *model.CurrentUser, userID string) (*model.UserData, error) {
	u, err := s.store.Users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if err := permissions.EnsureDefaultOrPermission(user, userID == user.ID, permissions.UserDataRead); err != nil {
		return nil, err
	}
	courses, err := s.store.Users.CountCourses(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.store.Users.CountAttempts(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return &model.UserData{
		ID:            u.ID,
		Username:      u.Username,
		FullName:      u.FullName,
		Email:         u.Email,
		IsBlocked:     u.IsBlocked,
		Roles:         u.Roles,
		CoursesCount:  courses,
		AttemptsCount: attempts,
	}, nil
}

func (s *UserService) UpdateFullName(ctx context.Context, user *model.CurrentUser, userID, fullName string) (*model.UserBasicInfo, error) {
	req := UpdateFullNameRequest{FullName: strings.TrimSpace(fullName)}
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := s.store.Users.FindByID(ctx, tx, userID); err != nil {
			return err
		}
		if err := permissions.EnsureDefaultOrPermission(user, userID == user.ID, permissions.UserFullNameWrite); err != nil {
			return err
		}
		return s.store.Users.UpdateFullName(ctx, tx, userID, req.FullName)
	})
	if err != nil {
		return nil, err
	}
	return &model.UserBasicInfo{ID: userID, FullName: req.FullName}, nil
}

func (s *UserService) GetRoles(ctx context.Context, user *model.CurrentUser, userID string) (*RolesResponse, error) {
	u, err := s.store.Users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if err := permissions.EnsureDefaultOrPermission(user, userID == user.ID, permissions.UserRolesRead); err != nil {
		return nil, err
	}
	return &RolesResponse{UserID: u.ID, Roles: u.Roles}, nil
}

func (s *UserService) SetRoles(ctx context.Context, user *model.CurrentUser, userID string, roles []string) (*RolesResponse, error) {
	if err := permissions.RequirePermission(user, permissions.UserRolesWrite); err != nil {
		return nil, err
	}
	roles = normalizeRoles(roles)
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.store.Users.SetRoles(ctx, tx, userID, roles)
	})
	if err != nil {
		return nil, err
	}
	return &RolesResponse{UserID: userID, Roles: roles}, nil
}

func (s *UserService) GetBlocked(ctx context.Context, user *model.CurrentUser, userID string) (*BlockedResponse, error) {
	if err := permissions.RequirePermission(user, permissions.UserBlockRead); err != nil {
		return nil, err
	}
	u, err := s.store.Users.FindByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return &BlockedResponse{UserID: u.ID, Blocked: u.IsBlocked}, nil
}

func (s *UserService) SetBlocked(ctx context.Context, user *model.CurrentUser, userID string, blocked bool) (*BlockedResponse, error) {
	if err := permissions.RequirePermission(user, permissions.UserBlockWrite); err != nil {
		return nil, err
	}
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return s.store.Users.SetBlocked(ctx, tx, userID, blocked)
	})
	if err != nil {
		return nil, err
	}
	return &BlockedResponse{UserID: userID, Blocked: blocked}, nil
}
