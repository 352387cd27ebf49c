package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// ProposalRepository 申请书数据访问接口
type ProposalRepository interface {
	Create(ctx context.Context, proposal *model.Proposal) error
	GetByID(ctx context.Context, id string) (*model.Proposal, error)
	Update(ctx context.Context, proposal *model.Proposal) error
	ListBySubmitter(ctx context.Context, submitterID string) ([]model.Proposal, error)
	// TransitionReviewStatus 条件更新 review_status（from → to）。
	// 返回 false 表示当前状态不是 from（竞争方已抢先转移），调用方应放弃后续阶段推进。
	// "全部评审完成 → 触发下一阶段" 的 at-most-once 保证依赖此方法。
	TransitionReviewStatus(ctx context.Context, proposalID, from, to string) (bool, error)
}

type proposalRepo struct {
	db *gorm.DB
}

// NewProposalRepo 创建 ProposalRepository 实例
func NewProposalRepo(db *gorm.DB) ProposalRepository {
	return &proposalRepo{db: db}
}

func (r *proposalRepo) Create(ctx context.Context, proposal *model.Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

func (r *proposalRepo) GetByID(ctx context.Context, id string) (*model.Proposal, error) {
	var p model.Proposal
	err := r.db.WithContext(ctx).
		Preload("Submitter").
		Preload("Submitter.Faculty").
		Where("proposal_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *proposalRepo) Update(ctx context.Context, proposal *model.Proposal) error {
	return r.db.WithContext(ctx).Save(proposal).Error
}

func (r *proposalRepo) ListBySubmitter(ctx context.Context, submitterID string) ([]model.Proposal, error) {
	var proposals []model.Proposal
	err := r.db.WithContext(ctx).
		Where("submitter_id = ? AND archived = false", submitterID).
		Order("created_at DESC").
		Find(&proposals).Error
	return proposals, err
}

func (r *proposalRepo) TransitionReviewStatus(ctx context.Context, proposalID, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Proposal{}).
		Where("proposal_id = ? AND review_status = ?", proposalID, from).
		Update("review_status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
