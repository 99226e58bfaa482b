package auth

import (
	"fmt"

	"clubpoker/internal/config"
)

// NewService builds the auth backend selected by the configuration.
func NewService(cfg config.Config) (Service, error) {
	switch cfg.AuthMode {
	case "memory":
		return NewManager(cfg.SessionTTL), nil
	case "sqlite":
		svc, err := NewSQLiteManager(cfg.AuthDBPath, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("open sqlite auth store: %w", err)
		}
		return svc, nil
	case "postgres":
		svc, err := NewPostgresManager(cfg.AuthDSN, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("open postgres auth store: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}
