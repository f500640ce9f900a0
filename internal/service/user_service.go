package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/auth"
	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/datamodels/order"
	"github.com/example/velours/internal/datamodels/user"
)

// RegisterInput 注册表单
type RegisterInput struct {
	Username string `form:"username" validate:"required,min=3,max=80"`
	Email    string `form:"email" validate:"required,email,max=120"`
	Password string `form:"password" validate:"required,min=6"`
}

// LoginInput 登录表单
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type UserService struct {
	repo   user.Repository
	orders order.Repository
	gate   *auth.Gate
}

func NewUserService(repo user.Repository, orders order.Repository, gate *auth.Gate) *UserService {
	return &UserService{repo: repo, orders: orders, gate: gate}
}

// Register 邮箱或用户名已存在时返回 Conflict，不改动已有账户
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*user.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return nil, apperr.New(apperr.InvalidInput, "auth.register_invalid")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.Conflict, "auth.email_taken")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, apperr.New(apperr.Conflict, "auth.username_taken")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &user.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	zap.L().Info("user registered", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

// Login 成功返回签名 token；邮箱不存在与密码错误不做区分
func (s *UserService) Login(ctx context.Context, in LoginInput) (string, *user.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", nil, apperr.New(apperr.InvalidCredentials, "auth.invalid_credentials")
		}
		return "", nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, in.Password) {
		return "", nil, apperr.New(apperr.InvalidCredentials, "auth.invalid_credentials")
	}
	token, err := s.gate.Issue(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Logout 丢弃 token 的缓存
func (s *UserService) Logout(ctx context.Context, token string) {
	s.gate.Forget(ctx, token)
}

func (s *UserService) Get(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Profile 个人中心：用户与其订单
func (s *UserService) Profile(ctx context.Context, id int64) (*user.User, []*order.Order, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	orders, err := s.orders.ListByUser(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return u, orders, nil
}

// EnsureAdmin 启动时创建默认管理员，已存在则跳过
func (s *UserService) EnsureAdmin(ctx context.Context, cfg *config.AdminConfig) error {
	if cfg == nil || cfg.Email == "" {
		return nil
	}
	_, err := s.repo.GetByEmail(ctx, strings.ToLower(cfg.Email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	u := &user.User{
		Username:     cfg.Username,
		Email:        strings.ToLower(cfg.Email),
		PasswordHash: hash,
		IsAdmin:      true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return err
	}
	zap.L().Info("default admin created", zap.String("email", u.Email))
	return nil
}
