package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// ReviewerWorkload 评审员工作量统计（用于候选人排序）
type ReviewerWorkload struct {
	ReviewerID     string `json:"reviewer_id"`
	Pending        int64  `json:"pending"`        // 进行中（含逾期）评审数
	Completed      int64  `json:"completed"`      // 已完成评审数
	Reconciliation int64  `json:"reconciliation"` // 历史调解评审数
}

// ReviewRepository 评审记录数据访问接口
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id string) (*model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	ListByProposal(ctx context.Context, proposalID string) ([]model.Review, error)
	ListByReviewer(ctx context.Context, reviewerID string, statuses []string) ([]model.Review, error)
	// WorkloadByReviewers 按评审员聚合工作量统计
	WorkloadByReviewers(ctx context.Context, reviewerIDs []string) (map[string]ReviewerWorkload, error)
	// ListInProgressDueBefore 查询截止时间早于 t 的进行中评审（逾期扫描用）
	ListInProgressDueBefore(ctx context.Context, t time.Time) ([]model.Review, error)
	// ListInProgressDueBetween 查询截止时间落在 [from, to] 的进行中评审（临期提醒用）
	ListInProgressDueBetween(ctx context.Context, from, to time.Time) ([]model.Review, error)
	// MarkOverdue 条件更新：仅当仍为 in_progress 时置为 overdue，返回是否生效
	MarkOverdue(ctx context.Context, reviewID string) (bool, error)
}

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepo 创建 ReviewRepository 实例
func NewReviewRepo(db *gorm.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *reviewRepo) GetByID(ctx context.Context, id string) (*model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Preload("Proposal").
		Preload("Proposal.Submitter").
		Preload("Proposal.Submitter.Faculty").
		Preload("Reviewer").
		Where("review_id = ?", id).
		First(&rv).Error
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepo) ListByProposal(ctx context.Context, proposalID string) ([]model.Review, error) {
	var out []model.Review
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("proposal_id = ?", proposalID).
		Order("created_at").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) ListByReviewer(ctx context.Context, reviewerID string, statuses []string) ([]model.Review, error) {
	q := r.db.WithContext(ctx).
		Preload("Proposal").
		Where("reviewer_id = ?", reviewerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var out []model.Review
	if err := q.Order("due_date").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) WorkloadByReviewers(ctx context.Context, reviewerIDs []string) (map[string]ReviewerWorkload, error) {
	result := make(map[string]ReviewerWorkload, len(reviewerIDs))
	if len(reviewerIDs) == 0 {
		return result, nil
	}

	var rows []ReviewerWorkload
	err := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Select(`reviewer_id,
			COUNT(*) FILTER (WHERE status IN ('in_progress', 'overdue')) AS pending,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE review_type = 'reconciliation') AS reconciliation`).
		Where("reviewer_id IN ?", reviewerIDs).
		Group("reviewer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.ReviewerID] = row
	}
	// 无任何评审记录的评审员补零值
	for _, id := range reviewerIDs {
		if _, ok := result[id]; !ok {
			result[id] = ReviewerWorkload{ReviewerID: id}
		}
	}
	return result, nil
}

func (r *reviewRepo) ListInProgressDueBefore(ctx context.Context, t time.Time) ([]model.Review, error) {
	var out []model.Review
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Preload("Proposal").
		Where("status = ? AND due_date < ?", model.ReviewInProgress, t).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) ListInProgressDueBetween(ctx context.Context, from, to time.Time) ([]model.Review, error) {
	var out []model.Review
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Preload("Proposal").
		Where("status = ? AND due_date >= ? AND due_date <= ?", model.ReviewInProgress, from, to).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) MarkOverdue(ctx context.Context, reviewID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("review_id = ? AND status = ?", reviewID, model.ReviewInProgress).
		Update("status", model.ReviewOverdue)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
