package service

import (
	"errors"
	"fmt"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// ServiceCatalog contains the business logic for the services running
// inside containers.
type ServiceCatalog struct {
	db *gorm.DB
}

// NewServiceCatalog creates a new ServiceCatalog.
func NewServiceCatalog(db *gorm.DB) *ServiceCatalog {
	return &ServiceCatalog{db: db}
}

// List returns services matching the filter, paginated.
func (s *ServiceCatalog) List(filter ServiceFilter, page Page) ([]models.Service, PageInfo, error) {
	page = page.Clamp()

	query := s.db.Model(&models.Service{})
	if filter.ContainerID != nil {
		query = query.Where("container_id = ?", *filter.ContainerID)
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", filter.ServiceType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PageInfo{}, err
	}

	var services []models.Service
	if err := query.
		Preload("Container").Preload("Owner").
		Order("sort_order, created_at DESC").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&services).Error; err != nil {
		return nil, PageInfo{}, err
	}
	return services, PageInfo{Page: page.Page, PageSize: page.PageSize, Total: total}, nil
}

// Get returns a single service by ID.
func (s *ServiceCatalog) Get(id uint) (*models.Service, error) {
	var svc models.Service
	if err := s.db.Preload("Container").Preload("Owner").First(&svc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &svc, nil
}

// Create registers a service owned by the actor.
func (s *ServiceCatalog) Create(actor audit.Actor, req CreateServiceRequest, client audit.ClientMeta) (*models.Service, error) {
	if req.Name == "" {
		return nil, &ValidationError{Message: "name is required"}
	}

	svc := models.Service{
		Name:           req.Name,
		ContainerID:    req.ContainerID,
		OwnerID:        actor.ID,
		ServiceType:    req.ServiceType,
		Port:           req.Port,
		Version:        req.Version,
		Status:         req.Status,
		HealthCheckURL: req.HealthCheckURL,
		Description:    req.Description,
	}
	if svc.Status == "" {
		svc.Status = models.ServiceStatusHealthy
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Container{}, req.ContainerID); err != nil {
			return err
		}
		if err := tx.Create(&svc).Error; err != nil {
			return fmt.Errorf("create service: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceService,
			ResourceID:   svc.ID,
			ResourceName: svc.Name,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

// Update applies the patch; owner or admin only.
func (s *ServiceCatalog) Update(actor audit.Actor, id uint, patch ServicePatch, client audit.ClientMeta) (*models.Service, error) {
	var svc models.Service
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&svc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := requireOwnerOrAdmin(actor, svc.OwnerID, "service"); err != nil {
			return err
		}

		changes := audit.Changes{}
		audit.Field(changes, "name", &svc.Name, patch.Name)
		audit.Field(changes, "service_type", &svc.ServiceType, patch.ServiceType)
		audit.Field(changes, "port", &svc.Port, patch.Port)
		audit.Field(changes, "version", &svc.Version, patch.Version)
		audit.Field(changes, "status", &svc.Status, patch.Status)
		audit.Field(changes, "health_check_url", &svc.HealthCheckURL, patch.HealthCheckURL)
		audit.Field(changes, "description", &svc.Description, patch.Description)
		audit.Field(changes, "sort_order", &svc.SortOrder, patch.SortOrder)
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Save(&svc).Error; err != nil {
			return fmt.Errorf("update service: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceService,
			ResourceID:   svc.ID,
			ResourceName: svc.Name,
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

// Delete removes the service; owner or admin only.
func (s *ServiceCatalog) Delete(actor audit.Actor, id uint, client audit.ClientMeta) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var svc models.Service
		if err := tx.First(&svc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := requireOwnerOrAdmin(actor, svc.OwnerID, "service"); err != nil {
			return err
		}

		if err := audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourceService,
			ResourceID:   svc.ID,
			ResourceName: svc.Name,
			Snapshot:     svc,
			Client:       client,
		}); err != nil {
			return err
		}
		return tx.Delete(&models.Service{}, id).Error
	})
}
