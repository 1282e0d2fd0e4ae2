package service

import (
	"errors"
	"time"

	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// ExportMaxRows caps the rows handed to the export collaborator so one
// request cannot pull the whole table into memory.
const ExportMaxRows = 10000

// AuditQueryService reads the append-only audit trail. Nothing in the
// application ever updates or deletes a row here.
type AuditQueryService struct {
	db *gorm.DB
}

// NewAuditQueryService creates a new AuditQueryService.
func NewAuditQueryService(db *gorm.DB) *AuditQueryService {
	return &AuditQueryService{db: db}
}

// AuditFilter narrows audit trail queries.
type AuditFilter struct {
	UserID       *uint
	Action       string
	ResourceType string
	StartTime    *time.Time
	EndTime      *time.Time
	Keyword      string // matches resource_name and captured username
}

// AuditLogSummary is the list shape: no changes, snapshot, or
// user-agent payload, to bound response size.
type AuditLogSummary struct {
	ID           uint      `json:"id"`
	UserID       *uint     `json:"user_id"`
	Username     string    `json:"username"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   uint      `json:"resource_id"`
	ResourceName string    `json:"resource_name"`
	IPAddress    string    `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *AuditQueryService) filtered(filter AuditFilter) *gorm.DB {
	query := s.db.Model(&models.AuditLog{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("resource_name LIKE ? OR username LIKE ?", kw, kw)
	}
	return query
}

// Query returns one page of audit summaries, newest first, plus the
// total count of matching rows.
func (s *AuditQueryService) Query(filter AuditFilter, page Page) ([]AuditLogSummary, PageInfo, error) {
	page = page.Clamp()
	query := s.filtered(filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, PageInfo{}, err
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC, id DESC").
		Offset(page.offset()).Limit(page.PageSize).
		Find(&logs).Error; err != nil {
		return nil, PageInfo{}, err
	}

	summaries := make([]AuditLogSummary, 0, len(logs))
	for _, l := range logs {
		summaries = append(summaries, summarize(l))
	}
	return summaries, PageInfo{Page: page.Page, PageSize: page.PageSize, Total: total}, nil
}

// Get returns the full record including the diff or snapshot payload.
func (s *AuditQueryService) Get(id uint) (*models.AuditLog, error) {
	var l models.AuditLog
	if err := s.db.First(&l, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// Export returns the filtered set newest first, capped at
// ExportMaxRows, for the external file-generation path. It applies the
// same filters as Query so both surfaces always agree.
func (s *AuditQueryService) Export(filter AuditFilter) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	if err := s.filtered(filter).
		Order("created_at DESC, id DESC").
		Limit(ExportMaxRows).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func summarize(l models.AuditLog) AuditLogSummary {
	return AuditLogSummary{
		ID:           l.ID,
		UserID:       l.UserID,
		Username:     l.Username,
		Action:       l.Action,
		ResourceType: l.ResourceType,
		ResourceID:   l.ResourceID,
		ResourceName: l.ResourceName,
		IPAddress:    l.IPAddress,
		CreatedAt:    l.CreatedAt,
	}
}
