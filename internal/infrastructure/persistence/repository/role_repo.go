package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/ehs-tracker/internal/application/port"
	"github.com/garyjia/ehs-tracker/internal/domain/entity"
	"github.com/garyjia/ehs-tracker/internal/infrastructure/persistence/sqlite"
)

// RoleRepository implements port.RoleRepository over app_roles and profiles
type RoleRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *sql.DB, logger *zap.Logger) *RoleRepository {
	return &RoleRepository{
		db:     db,
		logger: logger,
	}
}

// GetAppRole returns the explicit application role, or "" when none is assigned
func (r *RoleRepository) GetAppRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := sqlite.ExecutorFor(ctx, r.db).
		QueryRowContext(ctx, `SELECT role FROM app_roles WHERE user_id = ?`, userID).
		Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.logger.Error("Failed to get app role", zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("failed to get app role: %w", err)
	}
	return role, nil
}

// GetProfile returns the user's profile, or nil when none exists
func (r *RoleRepository) GetProfile(ctx context.Context, userID string) (*entity.Profile, error) {
	var profile entity.Profile
	var role sql.NullString
	err := sqlite.ExecutorFor(ctx, r.db).
		QueryRowContext(ctx, `SELECT user_id, full_name, role, client_id FROM profiles WHERE user_id = ?`, userID).
		Scan(&profile.UserID, &profile.FullName, &role, &profile.ClientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get profile", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	profile.Role = role.String
	return &profile, nil
}

// SetAppRole assigns an explicit application role
func (r *RoleRepository) SetAppRole(ctx context.Context, userID, role string) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO app_roles (user_id, role) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET role = excluded.role`,
		userID, role,
	)
	if err != nil {
		r.logger.Error("Failed to set app role", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("failed to set app role: %w", err)
	}
	return nil
}

// UpsertProfile creates or replaces a profile
func (r *RoleRepository) UpsertProfile(ctx context.Context, profile *entity.Profile) error {
	var role interface{}
	if profile.Role != "" {
		role = profile.Role
	}
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, role, client_id) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			full_name = excluded.full_name, role = excluded.role, client_id = excluded.client_id`,
		profile.UserID, profile.FullName, role, profile.ClientID,
	)
	if err != nil {
		r.logger.Error("Failed to upsert profile", zap.String("user_id", profile.UserID), zap.Error(err))
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

var _ port.RoleRepository = (*RoleRepository)(nil)
