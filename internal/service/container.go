package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// ContainerService contains the business logic for container and
// port-mapping operations.
type ContainerService struct {
	db *gorm.DB
}

// NewContainerService creates a new ContainerService.
func NewContainerService(db *gorm.DB) *ContainerService {
	return &ContainerService{db: db}
}

// List returns containers matching the filter, newest first, paginated.
func (s *ContainerService) List(filter ContainerFilter, page Page) ([]ContainerView, PageInfo, error) {
	page = page.Clamp()

	query := s.db.Model(&models.Container{})
	if filter.ServerID != nil {
		query = query.Where("server_id = ?", *filter.ServerID)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
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

	var containers []models.Container
	if err := query.
		Preload("Server").Preload("Owner").Preload("AssignedUser").
		Preload("PortMappings").
		Order("created_at DESC").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&containers).Error; err != nil {
		return nil, PageInfo{}, err
	}

	return NewContainerViews(containers), PageInfo{Page: page.Page, PageSize: page.PageSize, Total: total}, nil
}

// Get returns a container with its port mappings (resolved) and
// services loaded.
func (s *ContainerService) Get(id uint) (*ContainerView, error) {
	c, err := s.load(s.db, id)
	if err != nil {
		return nil, err
	}
	view := NewContainerView(*c)
	return &view, nil
}

func (s *ContainerService) load(tx *gorm.DB, id uint) (*models.Container, error) {
	var c models.Container
	err := tx.
		Preload("Server").Preload("Owner").Preload("AssignedUser").
		Preload("PortMappings").Preload("Services").
		First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create registers a container owned by the actor. Port mappings with
// both required ports set are created alongside it.
func (s *ContainerService) Create(actor audit.Actor, req CreateContainerRequest, client audit.ClientMeta) (*ContainerView, error) {
	if req.Name == "" {
		return nil, &ValidationError{Message: "name is required"}
	}

	c := models.Container{
		Name:           req.Name,
		ServerID:       req.ServerID,
		OwnerID:        actor.ID,
		AssignedUserID: req.AssignedUserID,
		Purpose:        req.Purpose,
		Image:          req.Image,
		ExternalID:     req.ExternalID,
		CPULimit:       req.CPULimit,
		MemoryLimitMB:  req.MemoryLimitMB,
		Status:         req.Status,
		Description:    req.Description,
	}
	if c.Status == "" {
		c.Status = models.ContainerStatusRunning
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Server{}, req.ServerID); err != nil {
			return err
		}
		if req.AssignedUserID != nil {
			if err := mustExist(tx, &models.User{}, *req.AssignedUserID); err != nil {
				return err
			}
		}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("create container: %w", err)
		}
		if err := createPortMappings(tx, c.ID, req.PortMappings); err != nil {
			return err
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceContainer,
			ResourceID:   c.ID,
			ResourceName: c.Name,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(c.ID)
}

func createPortMappings(tx *gorm.DB, containerID uint, inputs []PortMappingInput) error {
	for _, in := range inputs {
		if in.ContainerPort == 0 || in.InternalPort == 0 {
			continue
		}
		pm := models.PortMapping{
			ContainerID:   containerID,
			ContainerPort: in.ContainerPort,
			InternalIP:    in.InternalIP,
			InternalPort:  in.InternalPort,
			ExternalIP:    in.ExternalIP,
			ExternalPort:  in.ExternalPort,
			Protocol:      in.Protocol,
			Description:   in.Description,
		}
		if pm.Protocol == "" {
			pm.Protocol = "tcp"
		}
		if err := tx.Create(&pm).Error; err != nil {
			return fmt.Errorf("create port mapping: %w", err)
		}
	}
	return nil
}

// Update applies the patch. Only the owner or an admin may modify a
// container. A full port-mapping replacement is recorded as a single
// change entry since the old set is already inspectable in prior rows.
func (s *ContainerService) Update(actor audit.Actor, id uint, patch ContainerPatch, client audit.ClientMeta) (*ContainerView, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var c models.Container
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := requireOwnerOrAdmin(actor, c.OwnerID, "container"); err != nil {
			return err
		}

		changes := audit.Changes{}
		audit.Field(changes, "name", &c.Name, patch.Name)
		audit.Field(changes, "image", &c.Image, patch.Image)
		audit.Field(changes, "external_id", &c.ExternalID, patch.ExternalID)
		audit.Field(changes, "purpose", &c.Purpose, patch.Purpose)
		audit.Field(changes, "cpu_limit", &c.CPULimit, patch.CPULimit)
		audit.Field(changes, "memory_limit_mb", &c.MemoryLimitMB, patch.MemoryLimitMB)
		audit.Field(changes, "cpu_usage", &c.CPUUsage, patch.CPUUsage)
		audit.Field(changes, "memory_usage", &c.MemoryUsage, patch.MemoryUsage)
		audit.Field(changes, "status", &c.Status, patch.Status)
		audit.Field(changes, "description", &c.Description, patch.Description)
		audit.Field(changes, "sort_order", &c.SortOrder, patch.SortOrder)

		if patch.AssignedUserID != nil || patch.ClearAssignedUser {
			if patch.AssignedUserID != nil {
				if err := mustExist(tx, &models.User{}, *patch.AssignedUserID); err != nil {
					return err
				}
			}
			audit.RefField(changes, "assigned_user_id", &c.AssignedUserID, patch.AssignedUserID, true)
		}

		replacedMappings := patch.ReplacePortMappings || patch.PortMappings != nil
		if replacedMappings {
			if err := tx.Where("container_id = ?", c.ID).Delete(&models.PortMapping{}).Error; err != nil {
				return err
			}
			if err := createPortMappings(tx, c.ID, patch.PortMappings); err != nil {
				return err
			}
			changes["port_mappings"] = audit.FieldChange{Old: "replaced", New: "replaced"}
		}

		if len(changes) == 0 {
			return nil
		}

		if err := tx.Save(&c).Error; err != nil {
			return fmt.Errorf("update container: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceContainer,
			ResourceID:   c.ID,
			ResourceName: c.Name,
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Delete removes the container and cascades to its port mappings and
// services. The snapshot includes both child sets.
func (s *ContainerService) Delete(actor audit.Actor, id uint, client audit.ClientMeta) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.load(tx, id)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(actor, c.OwnerID, "container"); err != nil {
			return err
		}

		if err := audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourceContainer,
			ResourceID:   c.ID,
			ResourceName: c.Name,
			Snapshot:     NewContainerView(*c),
			Client:       client,
		}); err != nil {
			return err
		}
		return deleteContainerCascade(tx, c.ID)
	})
}

func deleteContainerCascade(tx *gorm.DB, id uint) error {
	if err := tx.Where("container_id = ?", id).Delete(&models.PortMapping{}).Error; err != nil {
		return err
	}
	if err := tx.Where("container_id = ?", id).Delete(&models.Service{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Container{}, id).Error
}

// BatchDelete removes many containers in one transaction with per-id
// savepoints; inaccessible or missing ids fail individually without
// rolling back the rest.
func (s *ContainerService) BatchDelete(actor audit.Actor, ids []uint, client audit.ClientMeta) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Message: "ids must not be empty"}
	}

	result := &BatchResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			err := tx.Transaction(func(sp *gorm.DB) error {
				c, err := s.load(sp, id)
				if err != nil {
					return err
				}
				if err := requireOwnerOrAdmin(actor, c.OwnerID, "container"); err != nil {
					return err
				}
				if err := audit.Record(sp, audit.Entry{
					Actor:        &actor,
					Action:       audit.ActionBatchDelete,
					ResourceType: audit.ResourceContainer,
					ResourceID:   c.ID,
					ResourceName: c.Name,
					Snapshot:     NewContainerView(*c),
					Client:       client,
				}); err != nil {
					return err
				}
				return deleteContainerCascade(sp, c.ID)
			})
			if err != nil {
				slog.Warn("batch delete skipped container", "id", id, "reason", err)
				result.Failed = append(result.Failed, BatchFailure{ID: id, Reason: err.Error()})
				continue
			}
			result.Success = append(result.Success, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.finalize()
	return result, nil
}

// UpdateSortOrder rewrites the manual display order. Admin only; sort
// position changes are presentation state and are not audited.
func (s *ContainerService) UpdateSortOrder(actor audit.Actor, items []SortOrderItem) error {
	if !actor.IsAdmin() {
		return &PermissionDeniedError{Message: "only admins may reorder containers"}
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := tx.Model(&models.Container{}).Where("id = ?", item.ID).
				Update("sort_order", item.SortOrder).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// AddPortMapping attaches one mapping to a container.
func (s *ContainerService) AddPortMapping(actor audit.Actor, containerID uint, in PortMappingInput, client audit.ClientMeta) (*PortMappingView, error) {
	if in.ContainerPort == 0 || in.InternalPort == 0 {
		return nil, &ValidationError{Message: "container_port and internal_port are required"}
	}

	var created models.PortMapping
	err := s.db.Transaction(func(tx *gorm.DB) error {
		c, err := s.load(tx, containerID)
		if err != nil {
			return err
		}
		if err := requireOwnerOrAdmin(actor, c.OwnerID, "container"); err != nil {
			return err
		}

		created = models.PortMapping{
			ContainerID:   containerID,
			ContainerPort: in.ContainerPort,
			InternalIP:    in.InternalIP,
			InternalPort:  in.InternalPort,
			ExternalIP:    in.ExternalIP,
			ExternalPort:  in.ExternalPort,
			Protocol:      in.Protocol,
			Description:   in.Description,
		}
		if created.Protocol == "" {
			created.Protocol = "tcp"
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create port mapping: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourcePortMapping,
			ResourceID:   created.ID,
			ResourceName: fmt.Sprintf("%s:%d", c.Name, created.ContainerPort),
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.portMappingView(created.ID)
}

// UpdatePortMapping patches one mapping in place.
func (s *ContainerService) UpdatePortMapping(actor audit.Actor, id uint, patch PortMappingPatch, client audit.ClientMeta) (*PortMappingView, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var pm models.PortMapping
		if err := tx.First(&pm, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var owner models.Container
		if err := tx.First(&owner, pm.ContainerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := requireOwnerOrAdmin(actor, owner.OwnerID, "container"); err != nil {
			return err
		}

		changes := audit.Changes{}
		audit.Field(changes, "container_port", &pm.ContainerPort, patch.ContainerPort)
		audit.Field(changes, "internal_ip", &pm.InternalIP, patch.InternalIP)
		audit.Field(changes, "internal_port", &pm.InternalPort, patch.InternalPort)
		audit.Field(changes, "external_ip", &pm.ExternalIP, patch.ExternalIP)
		audit.Field(changes, "external_port", &pm.ExternalPort, patch.ExternalPort)
		audit.Field(changes, "protocol", &pm.Protocol, patch.Protocol)
		audit.Field(changes, "description", &pm.Description, patch.Description)
		if len(changes) == 0 {
			return nil
		}
		if pm.ContainerPort == 0 || pm.InternalPort == 0 {
			return &ValidationError{Message: "container_port and internal_port are required"}
		}

		if err := tx.Save(&pm).Error; err != nil {
			return fmt.Errorf("update port mapping: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourcePortMapping,
			ResourceID:   pm.ID,
			ResourceName: fmt.Sprintf("%s:%d", owner.Name, pm.ContainerPort),
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.portMappingView(id)
}

// DeletePortMapping removes one mapping from a container.
func (s *ContainerService) DeletePortMapping(actor audit.Actor, id uint, client audit.ClientMeta) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var pm models.PortMapping
		if err := tx.Preload("Container").First(&pm, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if pm.Container != nil {
			if err := requireOwnerOrAdmin(actor, pm.Container.OwnerID, "container"); err != nil {
				return err
			}
		}

		name := fmt.Sprintf(":%d", pm.ContainerPort)
		if pm.Container != nil {
			name = fmt.Sprintf("%s:%d", pm.Container.Name, pm.ContainerPort)
		}
		if err := audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourcePortMapping,
			ResourceID:   pm.ID,
			ResourceName: name,
			Snapshot:     pm,
			Client:       client,
		}); err != nil {
			return err
		}
		return tx.Delete(&models.PortMapping{}, id).Error
	})
}

func (s *ContainerService) portMappingView(id uint) (*PortMappingView, error) {
	var pm models.PortMapping
	if err := s.db.Preload("Container").Preload("Container.Server").First(&pm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	serverIP := ""
	if pm.Container != nil && pm.Container.Server != nil {
		serverIP = pm.Container.Server.InternalIP
	}
	view := NewPortMappingView(pm, serverIP)
	return &view, nil
}

// requireOwnerOrAdmin rejects actors that neither own the resource nor
// hold the admin role.
func requireOwnerOrAdmin(actor audit.Actor, ownerID uint, resource string) error {
	if actor.IsAdmin() || actor.ID == ownerID {
		return nil
	}
	return &PermissionDeniedError{Message: fmt.Sprintf("not allowed to modify this %s", resource)}
}
