package stores

import (
	"context"

	"gorm.io/gorm"

	"github.com/peerawits/reqbridge/models"
)

// AuditStore persists reconciliation runs and submission outcomes for the
// administrator views. It is deliberately append-heavy; rows are never
// updated.
type AuditStore struct {
	BaseStore
}

func CreateAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{BaseStore: BaseStore{db: db}}
}

func (s *AuditStore) RecordSyncRun(ctx context.Context, run *models.SyncRun) error {
	return s.GetDB(ctx).Create(run).Error
}

func (s *AuditStore) RecordSubmission(ctx context.Context, sub *models.Submission) error {
	return s.GetDB(ctx).Create(sub).Error
}

func (s *AuditStore) ListSyncRuns(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*models.SyncRun
	if err := s.GetDB(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (s *AuditStore) ListSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]*models.Submission, int64, error) {
	var subs []*models.Submission
	var total int64

	query := s.GetDB(ctx).Model(&models.Submission{})
	if filter.Owner != "" {
		query = query.Where("owner = ?", filter.Owner)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}
