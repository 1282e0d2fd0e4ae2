package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rackmind/rackmind/internal/audit"
	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// ServerService contains the business logic for server operations.
type ServerService struct {
	db *gorm.DB
}

// NewServerService creates a new ServerService.
func NewServerService(db *gorm.DB) *ServerService {
	return &ServerService{db: db}
}

// List returns servers matching the filter, newest first, paginated.
func (s *ServerService) List(filter ServerFilter, page Page) ([]ServerView, PageInfo, error) {
	page = page.Clamp()

	query := s.db.Model(&models.Server{})
	if filter.DatacenterID != nil {
		query = query.Where("datacenter_id = ?", *filter.DatacenterID)
	}
	if filter.EnvironmentID != nil {
		query = query.Where("environment_id = ?", *filter.EnvironmentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where(
			"name LIKE ? OR internal_ip LIKE ? OR external_ip LIKE ? OR responsible_person LIKE ?",
			kw, kw, kw, kw,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PageInfo{}, err
	}

	var servers []models.Server
	if err := query.
		Preload("Datacenter").Preload("Environment").
		Order("created_at DESC").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&servers).Error; err != nil {
		return nil, PageInfo{}, err
	}

	views := make([]ServerView, 0, len(servers))
	for _, srv := range servers {
		views = append(views, NewServerView(srv))
	}
	return views, PageInfo{Page: page.Page, PageSize: page.PageSize, Total: total}, nil
}

// Get returns a server with its containers (port mappings resolved) and
// GPUs loaded.
func (s *ServerService) Get(id uint) (*ServerView, error) {
	srv, err := s.load(s.db, id)
	if err != nil {
		return nil, err
	}
	view := NewServerView(*srv)
	return &view, nil
}

func (s *ServerService) load(tx *gorm.DB, id uint) (*models.Server, error) {
	var srv models.Server
	err := tx.
		Preload("Datacenter").Preload("Environment").
		Preload("Containers").Preload("Containers.PortMappings").Preload("Containers.Services").
		Preload("GPUs").
		First(&srv, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &srv, nil
}

// Create validates the foreign-key targets and registers the server.
func (s *ServerService) Create(actor audit.Actor, req CreateServerRequest, client audit.ClientMeta) (*models.Server, error) {
	if req.Name == "" || req.InternalIP == "" {
		return nil, &ValidationError{Message: "name and internal_ip are required"}
	}

	srv := models.Server{
		Name:              req.Name,
		DatacenterID:      req.DatacenterID,
		EnvironmentID:     req.EnvironmentID,
		InternalIP:        req.InternalIP,
		ExternalIP:        req.ExternalIP,
		CPUCores:          req.CPUCores,
		MemoryGB:          req.MemoryGB,
		DiskGB:            req.DiskGB,
		OSType:            req.OSType,
		Status:            req.Status,
		ResponsiblePerson: req.ResponsiblePerson,
		Description:       req.Description,
		SSHPort:           req.SSHPort,
		SSHUser:           req.SSHUser,
	}
	if srv.Status == "" {
		srv.Status = models.ServerStatusOnline
	}
	if srv.SSHPort == 0 {
		srv.SSHPort = 22
	}
	if srv.SSHUser == "" {
		srv.SSHUser = "root"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := mustExist(tx, &models.Datacenter{}, req.DatacenterID); err != nil {
			return err
		}
		if err := mustExist(tx, &models.Environment{}, req.EnvironmentID); err != nil {
			return err
		}
		if err := tx.Create(&srv).Error; err != nil {
			return fmt.Errorf("create server: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceServer,
			ResourceID:   srv.ID,
			ResourceName: srv.Name,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return &srv, nil
}

// Update applies the patch, records the diff, and skips the audit write
// entirely when nothing changed.
func (s *ServerService) Update(actor audit.Actor, id uint, patch ServerPatch, client audit.ClientMeta) (*models.Server, error) {
	var srv models.Server
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&srv, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if patch.DatacenterID != nil && *patch.DatacenterID != srv.DatacenterID {
			if err := mustExist(tx, &models.Datacenter{}, *patch.DatacenterID); err != nil {
				return err
			}
		}
		if patch.EnvironmentID != nil && *patch.EnvironmentID != srv.EnvironmentID {
			if err := mustExist(tx, &models.Environment{}, *patch.EnvironmentID); err != nil {
				return err
			}
		}

		changes := serverChanges(&srv, patch)
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Save(&srv).Error; err != nil {
			return fmt.Errorf("update server: %w", err)
		}
		return audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceServer,
			ResourceID:   srv.ID,
			ResourceName: srv.Name,
			Changes:      changes,
			Client:       client,
		})
	})
	if err != nil {
		return nil, err
	}
	return &srv, nil
}

func serverChanges(srv *models.Server, patch ServerPatch) audit.Changes {
	changes := audit.Changes{}
	audit.Field(changes, "name", &srv.Name, patch.Name)
	audit.Field(changes, "datacenter_id", &srv.DatacenterID, patch.DatacenterID)
	audit.Field(changes, "environment_id", &srv.EnvironmentID, patch.EnvironmentID)
	audit.Field(changes, "internal_ip", &srv.InternalIP, patch.InternalIP)
	audit.Field(changes, "external_ip", &srv.ExternalIP, patch.ExternalIP)
	audit.Field(changes, "cpu_cores", &srv.CPUCores, patch.CPUCores)
	audit.Field(changes, "memory_gb", &srv.MemoryGB, patch.MemoryGB)
	audit.Field(changes, "disk_gb", &srv.DiskGB, patch.DiskGB)
	audit.Field(changes, "os_type", &srv.OSType, patch.OSType)
	audit.Field(changes, "cpu_usage", &srv.CPUUsage, patch.CPUUsage)
	audit.Field(changes, "memory_usage", &srv.MemoryUsage, patch.MemoryUsage)
	audit.Field(changes, "disk_usage", &srv.DiskUsage, patch.DiskUsage)
	audit.Field(changes, "status", &srv.Status, patch.Status)
	audit.Field(changes, "responsible_person", &srv.ResponsiblePerson, patch.ResponsiblePerson)
	audit.Field(changes, "description", &srv.Description, patch.Description)
	audit.Field(changes, "ssh_port", &srv.SSHPort, patch.SSHPort)
	audit.Field(changes, "ssh_user", &srv.SSHUser, patch.SSHUser)
	return changes
}

// Delete removes the server and cascades to its containers (with their
// port mappings and services) and GPUs inside the same transaction.
// The snapshot captures the full subtree before it goes.
func (s *ServerService) Delete(actor audit.Actor, id uint, client audit.ClientMeta) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		srv, err := s.load(tx, id)
		if err != nil {
			return err
		}

		if err := audit.Record(tx, audit.Entry{
			Actor:        &actor,
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourceServer,
			ResourceID:   srv.ID,
			ResourceName: srv.Name,
			Snapshot:     NewServerView(*srv),
			Client:       client,
		}); err != nil {
			return err
		}
		return deleteServerCascade(tx, srv)
	})
}

func deleteServerCascade(tx *gorm.DB, srv *models.Server) error {
	containerIDs := make([]uint, 0, len(srv.Containers))
	for _, c := range srv.Containers {
		containerIDs = append(containerIDs, c.ID)
	}
	if len(containerIDs) > 0 {
		if err := tx.Where("container_id IN ?", containerIDs).Delete(&models.PortMapping{}).Error; err != nil {
			return err
		}
		if err := tx.Where("container_id IN ?", containerIDs).Delete(&models.Service{}).Error; err != nil {
			return err
		}
		if err := tx.Where("server_id = ?", srv.ID).Delete(&models.Container{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("server_id = ?", srv.ID).Delete(&models.GPU{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Server{}, srv.ID).Error
}

// BatchUpdate applies one patch to many servers inside a single
// transaction. Each id runs in its own savepoint, so a bad id rolls
// back only itself and the rest still commit.
func (s *ServerService) BatchUpdate(actor audit.Actor, ids []uint, patch ServerPatch, client audit.ClientMeta) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Message: "ids must not be empty"}
	}

	result := &BatchResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			err := tx.Transaction(func(sp *gorm.DB) error {
				var srv models.Server
				if err := sp.First(&srv, id).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return ErrNotFound
					}
					return err
				}
				changes := serverChanges(&srv, patch)
				if len(changes) == 0 {
					return nil
				}
				if err := sp.Save(&srv).Error; err != nil {
					return err
				}
				return audit.Record(sp, audit.Entry{
					Actor:        &actor,
					Action:       audit.ActionBatchUpdate,
					ResourceType: audit.ResourceServer,
					ResourceID:   srv.ID,
					ResourceName: srv.Name,
					Changes:      changes,
					Client:       client,
				})
			})
			if err != nil {
				slog.Warn("batch update skipped server", "id", id, "reason", err)
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

// mustExist maps a missing foreign-key target to ErrNotFound.
func mustExist(tx *gorm.DB, model any, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
