// scholarship-system/internal/batchimport/purge.go

package batchimport

import (
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/models"
)

// PurgeExpired clears the staged parsed_data blob (student PII) of every
// batch past its retention deadline. Only the blob is cleared: application
// rows already created from the batch are untouched, and the batch row itself
// keeps its counts and status.
func PurgeExpired(db *gorm.DB) (int64, error) {
	res := db.Model(&models.BatchImport{}).
		Where("data_expires_at IS NOT NULL AND data_expires_at < ? AND parsed_data IS NOT NULL", time.Now()).
		Updates(map[string]any{"parsed_data": nil, "data_expires_at": nil})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		slog.Info("purged expired batch import data", "batches", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
