package service

import (
	"errors"
	"fmt"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// DatacenterService contains the business logic for datacenter
// operations.
type DatacenterService struct {
	db *gorm.DB
}

// NewDatacenterService creates a new DatacenterService.
func NewDatacenterService(db *gorm.DB) *DatacenterService {
	return &DatacenterService{db: db}
}

// DatacenterStats carries per-datacenter resource counts.
type DatacenterStats struct {
	models.Datacenter
	ServerCount    int64 `json:"server_count"`
	ContainerCount int64 `json:"container_count"`
	ServiceCount   int64 `json:"service_count"`
	GPUCount       int64 `json:"gpu_count"`
}

// List returns active datacenters ordered by name.
func (s *DatacenterService) List() ([]models.Datacenter, error) {
	var dcs []models.Datacenter
	if err := s.db.Where("is_active = ?", true).Order("name").Find(&dcs).Error; err != nil {
		return nil, err
	}
	return dcs, nil
}

// Overview returns active datacenters with server/container/service/GPU
// counts for the dashboard.
func (s *DatacenterService) Overview() ([]DatacenterStats, error) {
	var dcs []models.Datacenter
	if err := s.db.Where("is_active = ?", true).Order("name").Find(&dcs).Error; err != nil {
		return nil, err
	}

	overview := make([]DatacenterStats, 0, len(dcs))
	for _, dc := range dcs {
		stats := DatacenterStats{Datacenter: dc}
		if err := s.db.Model(&models.Server{}).Where("datacenter_id = ?", dc.ID).Count(&stats.ServerCount).Error; err != nil {
			return nil, err
		}

		serverIDs := s.db.Model(&models.Server{}).Select("id").Where("datacenter_id = ?", dc.ID)
		if err := s.db.Model(&models.Container{}).Where("server_id IN (?)", serverIDs).Count(&stats.ContainerCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.Model(&models.GPU{}).Where("server_id IN (?)", serverIDs).Count(&stats.GPUCount).Error; err != nil {
			return nil, err
		}

		containerIDs := s.db.Model(&models.Container{}).Select("id").Where("server_id IN (?)", serverIDs)
		if err := s.db.Model(&models.Service{}).Where("container_id IN (?)", containerIDs).Count(&stats.ServiceCount).Error; err != nil {
			return nil, err
		}
		overview = append(overview, stats)
	}
	return overview, nil
}

// Get returns a single datacenter by ID.
func (s *DatacenterService) Get(id uint) (*models.Datacenter, error) {
	var dc models.Datacenter
	if err := s.db.First(&dc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dc, nil
}

// Create validates name uniqueness, creates the datacenter, and writes
// an audit record in the same transaction.
func (s *DatacenterService) Create(actor audit.Actor, req CreateDatacenterRequest, client audit.ClientMeta) (*models.Datacenter, error) {
	if req.Name == "" {
		return nil, &ValidationError{Message: "name is required"}
	}

	dc := models.Datacenter{
		Name:        req.Name,
		Location:    req.Location,
		Description: req.Description,
		IsActive:    true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Datacenter{}).Where("name = ?", req.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &DuplicateKeyError{Field: "name"}
		}
		if err := tx.Create(&dc).Error; err != nil {
			return fmt.Errorf("create datacenter: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceDatacenter,
			ResourceID:   dc.ID,
			ResourceName: dc.Name,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// Update applies the patch and records the field-level diff. An update
// that changes nothing writes no audit record.
func (s *DatacenterService) Update(actor audit.Actor, id uint, patch DatacenterPatch, client audit.ClientMeta) (*models.Datacenter, error) {
	var dc models.Datacenter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&dc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if patch.Name != nil && *patch.Name != dc.Name {
			var count int64
			if err := tx.Model(&models.Datacenter{}).Where("name = ? AND id <> ?", *patch.Name, id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return &DuplicateKeyError{Field: "name"}
			}
		}

		changes := audit.Changes{}
		audit.Field(changes, "name", &dc.Name, patch.Name)
		audit.Field(changes, "location", &dc.Location, patch.Location)
		audit.Field(changes, "description", &dc.Description, patch.Description)
		audit.Field(changes, "is_active", &dc.IsActive, patch.IsActive)
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Save(&dc).Error; err != nil {
			return fmt.Errorf("update datacenter: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceDatacenter,
			ResourceID:   dc.ID,
			ResourceName: dc.Name,
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// Delete removes an empty datacenter. A datacenter that still owns
// servers is never cascaded from here; the caller gets a conflict.
func (s *DatacenterService) Delete(actor audit.Actor, id uint, client audit.ClientMeta) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var dc models.Datacenter
		if err := tx.First(&dc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var serverCount int64
		if err := tx.Model(&models.Server{}).Where("datacenter_id = ?", id).Count(&serverCount).Error; err != nil {
			return err
		}
		if serverCount > 0 {
			return &ConflictError{Message: "datacenter still has servers"}
		}

		if err := audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourceDatacenter,
			ResourceID:   dc.ID,
			ResourceName: dc.Name,
			Snapshot:     dc,
			Client:       client,
		}); err != nil {
			return err
		}
		return tx.Delete(&models.Datacenter{}, id).Error
	})
}
