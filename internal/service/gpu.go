package service

import (
	"errors"
	"fmt"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// GPUService contains the business logic for GPU inventory and
// assignment. Assignment and status always change together so the
// availability invariant (free ⇔ unassigned) holds in every state.
type GPUService struct {
	db *gorm.DB
}

// NewGPUService creates a new GPUService.
func NewGPUService(db *gorm.DB) *GPUService {
	return &GPUService{db: db}
}

// List returns GPUs matching the filter, ordered by server and card
// index, paginated.
func (s *GPUService) List(filter GPUFilter, page Page) ([]GPUView, PageInfo, error) {
	page = page.Clamp()

	query := s.db.Model(&models.GPU{})
	if filter.ServerID != nil {
		query = query.Where("server_id = ?", *filter.ServerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PageInfo{}, err
	}

	var gpus []models.GPU
	if err := query.
		Preload("Server").Preload("AssignedUser").
		Order("server_id, card_index").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&gpus).Error; err != nil {
		return nil, PageInfo{}, err
	}
	return NewGPUViews(gpus), PageInfo{Page: page.Page, PageSize: page.PageSize, Total: total}, nil
}

// Get returns a single GPU by ID.
func (s *GPUService) Get(id uint) (*GPUView, error) {
	gpu, err := s.load(s.db, id)
	if err != nil {
		return nil, err
	}
	view := NewGPUView(*gpu)
	return &view, nil
}

func (s *GPUService) load(tx *gorm.DB, id uint) (*models.GPU, error) {
	var gpu models.GPU
	if err := tx.Preload("Server").Preload("AssignedUser").First(&gpu, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &gpu, nil
}

// Create registers a GPU card on a server.
func (s *GPUService) Create(actor audit.Actor, req CreateGPURequest, client audit.ClientMeta) (*GPUView, error) {
	if req.Model == "" || req.MemoryGB == 0 {
		return nil, &ValidationError{Message: "model and memory_gb are required"}
	}

	gpu := models.GPU{
		ServerID:    req.ServerID,
		Model:       req.Model,
		MemoryGB:    req.MemoryGB,
		Index:       req.Index,
		Status:      req.Status,
		Description: req.Description,
	}
	if gpu.Status == "" {
		gpu.Status = models.GPUStatusFree
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Server{}, req.ServerID); err != nil {
			return err
		}
		if err := tx.Create(&gpu).Error; err != nil {
			return fmt.Errorf("create gpu: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceGPU,
			ResourceID:   gpu.ID,
			ResourceName: gpu.Model,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(gpu.ID)
}

// Update applies the patch for hardware attributes and gauges.
func (s *GPUService) Update(actor audit.Actor, id uint, patch GPUPatch, client audit.ClientMeta) (*GPUView, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var gpu models.GPU
		if err := tx.First(&gpu, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		changes := audit.Changes{}
		audit.Field(changes, "model", &gpu.Model, patch.Model)
		audit.Field(changes, "memory_gb", &gpu.MemoryGB, patch.MemoryGB)
		audit.Field(changes, "index", &gpu.Index, patch.Index)
		audit.Field(changes, "gpu_usage", &gpu.GPUUsage, patch.GPUUsage)
		audit.Field(changes, "memory_usage", &gpu.MemoryUsage, patch.MemoryUsage)
		audit.Field(changes, "status", &gpu.Status, patch.Status)
		audit.Field(changes, "description", &gpu.Description, patch.Description)
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Save(&gpu).Error; err != nil {
			return fmt.Errorf("update gpu: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceGPU,
			ResourceID:   gpu.ID,
			ResourceName: gpu.Model,
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Assign hands the card to a user: assigned_to and status move to
// (user, in_use) together, whatever the prior state was.
func (s *GPUService) Assign(actor audit.Actor, id, userID uint, client audit.ClientMeta) (*GPUView, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var gpu models.GPU
		if err := tx.First(&gpu, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := mustExist(tx, &models.User{}, userID); err != nil {
			return err
		}

		changes := audit.Changes{}
		audit.RefField(changes, "assigned_to", &gpu.AssignedTo, &userID, true)
		status := models.GPUStatusInUse
		audit.Field(changes, "status", &gpu.Status, &status)
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Save(&gpu).Error; err != nil {
			return fmt.Errorf("assign gpu: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceGPU,
			ResourceID:   gpu.ID,
			ResourceName: gpu.Model,
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Release clears the assignment: assigned_to and status move back to
// (none, free) together.
func (s *GPUService) Release(actor audit.Actor, id uint, client audit.ClientMeta) (*GPUView, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var gpu models.GPU
		if err := tx.First(&gpu, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		changes := audit.Changes{}
		audit.RefField(changes, "assigned_to", &gpu.AssignedTo, nil, true)
		status := models.GPUStatusFree
		audit.Field(changes, "status", &gpu.Status, &status)
		if len(changes) == 0 {
			return nil
		}

		// Save skips zero-valued fields; use explicit column updates so
		// assigned_to really goes back to NULL.
		if err := tx.Model(&gpu).Updates(map[string]any{
			"assigned_to": nil,
			"status":      models.GPUStatusFree,
		}).Error; err != nil {
			return fmt.Errorf("release gpu: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceGPU,
			ResourceID:   gpu.ID,
			ResourceName: gpu.Model,
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes the card, snapshotting its final state.
func (s *GPUService) Delete(actor audit.Actor, id uint, client audit.ClientMeta) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		gpu, err := s.load(tx, id)
		if err != nil {
			return err
		}

		if err := audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourceGPU,
			ResourceID:   gpu.ID,
			ResourceName: gpu.Model,
			Snapshot:     NewGPUView(*gpu),
			Client:       client,
		}); err != nil {
			return err
		}
		return tx.Delete(&models.GPU{}, id).Error
	})
}
