// scholarship-system/internal/quota/redistribute.go

// Package quota recounts ranked quota allocations after an application
// reaches a final disposition. The review workflow calls it exactly once per
// qualifying transition and attaches the result to its response; the outcome
// never feeds back into review state.
package quota

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/anud18/scholarship-system-sub001/models"
)

type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// AutoRedistributeAfterStatusChange refreshes the Allocated counters of every
// quota row covering the application's scholarship and period.
func (s *Service) AutoRedistributeAfterStatusChange(ctx context.Context, applicationID, executorID uint) (map[string]any, error) {
	var app models.Application
	if err := s.DB.First(&app, applicationID).Error; err != nil {
		return nil, err
	}

	q := s.DB.Where("scholarship_type_id = ? AND academic_year = ?", app.ScholarshipTypeID, app.AcademicYear)
	if app.Semester == nil {
		q = q.Where("semester IS NULL")
	} else {
		q = q.Where("semester = ?", *app.Semester)
	}

	var allocations []models.QuotaAllocation
	if err := q.Find(&allocations).Error; err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return map[string]any{"auto_redistributed": false, "reason": "no ranked quota configured"}, nil
	}

	updated := 0
	for i := range allocations {
		count, err := s.approvedCount(&allocations[i])
		if err != nil {
			return nil, err
		}
		if allocations[i].Allocated == count {
			continue
		}
		allocations[i].Allocated = count
		if err := s.DB.Model(&allocations[i]).Update("allocated", count).Error; err != nil {
			return nil, err
		}
		updated++
	}

	return map[string]any{
		"auto_redistributed": updated > 0,
		"updated_sub_types":  updated,
		"executor_id":        executorID,
	}, nil
}

// approvedCount counts approved applications listing the sub-type for the
// allocation's period. SubTypeCodes is a text[] column, hence the ANY match.
func (s *Service) approvedCount(alloc *models.QuotaAllocation) (int, error) {
	var count int64
	q := s.DB.Model(&models.Application{}).
		Where("scholarship_type_id = ? AND academic_year = ? AND status = ? AND ? = ANY(sub_type_codes)",
			alloc.ScholarshipTypeID, alloc.AcademicYear, models.StatusApproved, alloc.SubTypeCode)
	if alloc.Semester == nil {
		q = q.Where("semester IS NULL")
	} else {
		q = q.Where("semester = ?", *alloc.Semester)
	}
	if err := q.Count(&count).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	return int(count), nil
}
