package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/example/velours/internal/apperr"
	"github.com/example/velours/internal/config"
	"github.com/example/velours/internal/datamodels/user"
)

// Principal 当前请求的登录身份
type Principal struct {
	UserID   int64
	Username string
	Email    string
	IsAdmin  bool
}

// Gate 把 token 还原成 Principal。token 只证明身份，
// 管理员标记每次都从数据库重新读取
type Gate struct {
	cfg   *config.JWTConfig
	users user.Repository
	cache *TokenCache
}

// NewGate cache 可为 nil
func NewGate(cfg *config.JWTConfig, users user.Repository, cache *TokenCache) *Gate {
	return &Gate{cfg: cfg, users: users, cache: cache}
}

// Issue 为用户签发 token
func (g *Gate) Issue(u *user.User) (string, error) {
	return GenerateToken(g.cfg, u.ID, u.Username)
}

// Resolve token 无效、过期或用户已删除都返回 Unauthorized
func (g *Gate) Resolve(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, apperr.New(apperr.Unauthorized, "auth.login_required")
	}
	claims, err := g.claims(ctx, token)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthorized, err, "auth.login_required")
	}
	u, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Wrap(apperr.Unauthorized, err, "auth.login_required")
		}
		return nil, err
	}
	return &Principal{UserID: u.ID, Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin}, nil
}

func (g *Gate) claims(ctx context.Context, token string) (*Claims, error) {
	if g.cache != nil {
		if c, ok, err := g.cache.Get(ctx, token); err != nil {
			zap.L().Warn("token cache get failed", zap.Error(err))
		} else if ok && c.ExpiresAt != nil && c.ExpiresAt.After(timeNow()) {
			return c, nil
		}
	}
	c, err := ParseToken(g.cfg, token)
	if err != nil {
		return nil, err
	}
	if g.cache != nil {
		if err := g.cache.Set(ctx, token, c); err != nil {
			zap.L().Warn("token cache set failed", zap.Error(err))
		}
	}
	return c, nil
}

// Forget 登出时丢弃缓存的解析结果
func (g *Gate) Forget(ctx context.Context, token string) {
	if g.cache == nil {
		return
	}
	if err := g.cache.Delete(ctx, token); err != nil {
		zap.L().Warn("token cache delete failed", zap.Error(err))
	}
}
