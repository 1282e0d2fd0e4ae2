package models

import "time"

// Grouping and view modes for UserPreference.
const (
	GroupingEnvironmentFirst = "environment-first"
	GroupingDatacenterFirst  = "datacenter-first"
	GroupingFlat             = "flat"

	ViewModeGrid = "grid"
	ViewModeList = "list"
)

// Panel width bounds accepted from clients.
const (
	PanelWidthMin = 200
	PanelWidthMax = 400
)

// UserPreference stores per-account navigation settings. One row per
// user, created lazily on first save.
type UserPreference struct {
	ID            uint      `gorm:"primarykey" json:"-"`
	UserID        uint      `gorm:"uniqueIndex;not null" json:"-"`
	GroupingMode  string    `gorm:"size:30;not null;default:'environment-first'" json:"grouping_mode"`
	ViewMode      string    `gorm:"size:20;not null;default:'grid'" json:"view_mode"`
	PanelWidth    int       `gorm:"not null;default:260" json:"panel_width"`
	ShowDetailBar bool      `gorm:"not null;default:true" json:"show_detail_bar"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DefaultPreference returns the settings a user sees before saving any.
func DefaultPreference(userID uint) UserPreference {
	return UserPreference{
		UserID:        userID,
		GroupingMode:  GroupingEnvironmentFirst,
		ViewMode:      ViewModeGrid,
		PanelWidth:    260,
		ShowDetailBar: true,
	}
}
