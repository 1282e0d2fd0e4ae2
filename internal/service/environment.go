package service

import (
	"errors"

	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// EnvironmentService reads the fixed environment set. Environments are
// seeded at bootstrap (lookup-or-create by code) and the API surface is
// read-only for them.
type EnvironmentService struct {
	db *gorm.DB
}

// NewEnvironmentService creates a new EnvironmentService.
func NewEnvironmentService(db *gorm.DB) *EnvironmentService {
	return &EnvironmentService{db: db}
}

// EnvironmentStats is an environment with its server count.
type EnvironmentStats struct {
	models.Environment
	ServerCount int64 `json:"server_count"`
}

// List returns all environments in sort order with server counts.
func (s *EnvironmentService) List() ([]EnvironmentStats, error) {
	var envs []models.Environment
	if err := s.db.Order("sort_order").Find(&envs).Error; err != nil {
		return nil, err
	}

	out := make([]EnvironmentStats, 0, len(envs))
	for _, env := range envs {
		stats := EnvironmentStats{Environment: env}
		if err := s.db.Model(&models.Server{}).Where("environment_id = ?", env.ID).Count(&stats.ServerCount).Error; err != nil {
			return nil, err
		}
		out = append(out, stats)
	}
	return out, nil
}

// Get returns a single environment by ID.
func (s *EnvironmentService) Get(id uint) (*models.Environment, error) {
	var env models.Environment
	if err := s.db.First(&env, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &env, nil
}
