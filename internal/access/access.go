// Package access decides which Telegram users may talk to the bot. The
// allowlist is the union of the configured admin, the static IDs from the
// config file, and users granted access at runtime.
package access

import (
	"context"

	"go.uber.org/zap"
)

// DynamicSource answers whether a user was granted access at runtime.
// The SQLite store implements it.
type DynamicSource interface {
	IsDynamicUser(ctx context.Context, userID int64) (bool, error)
}

// Config holds the access-control settings.
type Config struct {
	AdminID      int64   `mapstructure:"admin_id"`
	AllowedUsers []int64 `mapstructure:"allowed_users"`
}

// Checker is the concrete allowlist checker.
type Checker struct {
	adminID int64
	static  map[int64]struct{}
	dynamic DynamicSource
	logger  *zap.Logger
}

// New builds a checker from config plus an optional dynamic source.
// A nil dynamic source restricts access to the configured IDs only.
func New(cfg Config, dynamic DynamicSource, logger *zap.Logger) *Checker {
	static := make(map[int64]struct{}, len(cfg.AllowedUsers))
	for _, id := range cfg.AllowedUsers {
		static[id] = struct{}{}
	}
	return &Checker{
		adminID: cfg.AdminID,
		static:  static,
		dynamic: dynamic,
		logger:  logger,
	}
}

// Allowed reports whether the user may use the bot. A dynamic-source
// lookup failure denies access rather than failing open.
func (c *Checker) Allowed(ctx context.Context, userID int64) bool {
	if userID == 0 {
		return false
	}
	if c.adminID != 0 && userID == c.adminID {
		return true
	}
	if _, ok := c.static[userID]; ok {
		return true
	}
	if c.dynamic == nil {
		return false
	}
	ok, err := c.dynamic.IsDynamicUser(ctx, userID)
	if err != nil {
		c.logger.Warn("dynamic allowlist lookup failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	return ok
}

// IsAdmin reports whether the user is the configured administrator.
func (c *Checker) IsAdmin(userID int64) bool {
	return c.adminID != 0 && userID == c.adminID
}
