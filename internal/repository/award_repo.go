package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// AwardRepository 资助记录数据访问接口
type AwardRepository interface {
	GetByProposal(ctx context.Context, proposalID string) (*model.Award, error)
	// Upsert 按 proposal_id 冲突更新：已存在时就地更新 final_score/feedback，不产生重复记录
	Upsert(ctx context.Context, award *model.Award) error
	Update(ctx context.Context, award *model.Award) error
}

type awardRepo struct {
	db *gorm.DB
}

// NewAwardRepo 创建 AwardRepository 实例
func NewAwardRepo(db *gorm.DB) AwardRepository {
	return &awardRepo{db: db}
}

func (r *awardRepo) GetByProposal(ctx context.Context, proposalID string) (*model.Award, error) {
	var a model.Award
	if err := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *awardRepo) Upsert(ctx context.Context, award *model.Award) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proposal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"final_score", "feedback", "updated_at"}),
		}).
		Create(award).Error
}

func (r *awardRepo) Update(ctx context.Context, award *model.Award) error {
	return r.db.WithContext(ctx).Save(award).Error
}
