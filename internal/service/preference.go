package service

import (
	"errors"
	"time"

	"github.com/rackmind/rackmind/internal/models"
	"gorm.io/gorm"
)

// PreferenceService manages per-account navigation settings. Rows are
// created lazily on first save; reads before that return defaults.
type PreferenceService struct {
	db *gorm.DB
}

// NewPreferenceService creates a new PreferenceService.
func NewPreferenceService(db *gorm.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// PreferenceView is the wire shape of a user's settings. UpdatedAt is
// nil until the user has saved at least once.
type PreferenceView struct {
	GroupingMode  string     `json:"grouping_mode"`
	ViewMode      string     `json:"view_mode"`
	PanelWidth    int        `json:"panel_width"`
	ShowDetailBar bool       `json:"show_detail_bar"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

func preferenceView(pref models.UserPreference, saved bool) *PreferenceView {
	view := &PreferenceView{
		GroupingMode:  pref.GroupingMode,
		ViewMode:      pref.ViewMode,
		PanelWidth:    pref.PanelWidth,
		ShowDetailBar: pref.ShowDetailBar,
	}
	if saved {
		at := pref.UpdatedAt
		view.UpdatedAt = &at
	}
	return view
}

// Get returns the user's settings, or the defaults when none are saved.
func (s *PreferenceService) Get(userID uint) (*PreferenceView, error) {
	var pref models.UserPreference
	err := s.db.Where("user_id = ?", userID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return preferenceView(models.DefaultPreference(userID), false), nil
	}
	if err != nil {
		return nil, err
	}
	return preferenceView(pref, true), nil
}

// Update saves the given fields. Values outside the accepted sets and
// bounds are ignored rather than rejected.
func (s *PreferenceService) Update(userID uint, patch PreferencePatch) (*PreferenceView, error) {
	var pref models.UserPreference
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&pref).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pref = models.DefaultPreference(userID)
		} else if err != nil {
			return err
		}

		if patch.GroupingMode != nil {
			switch *patch.GroupingMode {
			case models.GroupingEnvironmentFirst, models.GroupingDatacenterFirst, models.GroupingFlat:
				pref.GroupingMode = *patch.GroupingMode
			}
		}
		if patch.ViewMode != nil {
			switch *patch.ViewMode {
			case models.ViewModeGrid, models.ViewModeList:
				pref.ViewMode = *patch.ViewMode
			}
		}
		if patch.PanelWidth != nil {
			if w := *patch.PanelWidth; w >= models.PanelWidthMin && w <= models.PanelWidthMax {
				pref.PanelWidth = w
			}
		}
		if patch.ShowDetailBar != nil {
			pref.ShowDetailBar = *patch.ShowDetailBar
		}

		return tx.Save(&pref).Error
	})
	if err != nil {
		return nil, err
	}
	return preferenceView(pref, true), nil
}
