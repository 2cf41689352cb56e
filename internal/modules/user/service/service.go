package service

import (
	"github.com/reshetovitsme/squad-bot/internal/shared/config"
	"github.com/samber/lo"
)

// Service answers access questions about users
type Service struct {
	cfg *config.Config
}

// New creates a new user service
func New(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// IsAdmin checks if a user may run owner-only commands.
// With no admins configured nobody can.
func (s *Service) IsAdmin(userID string) bool {
	return userID != "" && lo.Contains(s.cfg.AdminUsers, userID)
}
