package database

import (
	"strings"

	"github.com/screentime/screentime/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// AddToBlocklist adds an app to the blocklist. Returns false if the app
// was already blocked.
func (r *Repository) AddToBlocklist(appName string) (bool, error) {
	appName = strings.ToLower(appName)

	var existing models.BlockedApp
	result := r.db.Where("app_name = ?", appName).First(&existing)
	if result.Error == nil {
		return false, nil
	}
	if result.Error != gorm.ErrRecordNotFound {
		return false, errors.Wrap(result.Error, "failed to check blocklist")
	}

	if result := r.db.Create(&models.BlockedApp{AppName: appName}); result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to add to blocklist")
	}
	return true, nil
}

// RemoveFromBlocklist removes an app from the blocklist. Returns false if
// the app was not blocked.
func (r *Repository) RemoveFromBlocklist(appName string) (bool, error) {
	result := r.db.Where("app_name = ?", strings.ToLower(appName)).Delete(&models.BlockedApp{})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to remove from blocklist")
	}
	return result.RowsAffected > 0, nil
}

// GetBlocklist returns all blocked apps sorted by name.
func (r *Repository) GetBlocklist() ([]models.BlockedApp, error) {
	var blocked []models.BlockedApp
	result := r.db.Order("app_name ASC").Find(&blocked)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query blocklist")
	}
	return blocked, nil
}

// IsBlocked checks whether an app is on the blocklist.
func (r *Repository) IsBlocked(appName string) (bool, error) {
	var count int64
	result := r.db.Model(&models.BlockedApp{}).
		Where("app_name = ?", strings.ToLower(appName)).
		Count(&count)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to check blocklist")
	}
	return count > 0, nil
}

// ClearBlocklist removes all apps from the blocklist and returns how many
// entries were removed.
func (r *Repository) ClearBlocklist() (int64, error) {
	result := r.db.Where("1 = 1").Delete(&models.BlockedApp{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to clear blocklist")
	}
	return result.RowsAffected, nil
}
