package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/config"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// AwardService 资助定稿与决定业务接口
type AwardService interface {
	// Finalize 按已完成评审计算最终得分并落资助记录（upsert，可安全重放）
	Finalize(ctx context.Context, proposalID string) (*dto.AwardResponse, error)
	// GetByProposal 查询申请书的资助记录
	GetByProposal(ctx context.Context, proposalID string) (*dto.AwardResponse, error)
	// Decide 管理员批准/否决资助
	Decide(ctx context.Context, proposalID, adminID string, req *dto.DecideAwardRequest) (*dto.AwardResponse, error)
}

type awardService struct {
	repo   *repository.Repository
	cfg    *config.ReviewConfig
	logger *zap.Logger
}

// NewAwardService 创建 AwardService 实例
func NewAwardService(repo *repository.Repository, cfg *config.ReviewConfig, logger *zap.Logger) AwardService {
	return &awardService{repo: repo, cfg: cfg, logger: logger}
}

// 算分规则：
//   - 无调解评审：最终得分 = 常规已完成评审总分的算术平均
//   - 有已完成的调解评审：调解总分 × 权重 + 常规均分 × (1-权重)，默认权重 0.6
func (s *awardService) Finalize(ctx context.Context, proposalID string) (*dto.AwardResponse, error) {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		s.logger.Error("查询申请书失败", zap.Error(err))
		return nil, err
	}

	reviews, err := s.repo.Review.ListByProposal(ctx, proposalID)
	if err != nil {
		s.logger.Error("查询申请书评审列表失败", zap.Error(err))
		return nil, err
	}

	var recon *model.Review
	totals := make([]int, 0, len(reviews))
	for i := range reviews {
		rv := &reviews[i]
		if rv.Status != model.ReviewCompleted {
			continue
		}
		if rv.IsReconciliation() {
			recon = rv
			continue
		}
		totals = append(totals, rv.TotalScore)
	}
	if len(totals) == 0 {
		return nil, ErrNoCompletedReviews
	}

	sum := 0
	for _, t := range totals {
		sum += t
	}
	avg := float64(sum) / float64(len(totals))

	var finalScore float64
	var feedback string
	if recon != nil {
		w := s.cfg.ReconciliationWeight
		finalScore = float64(recon.TotalScore)*w + avg*(1-w)
		feedback = fmt.Sprintf(
			"Final score %.1f/100, combining the reconciliation review (%d, weighted %.0f%%) with the average of %d regular reviews (%.1f). A reconciliation review was required because the initial scores diverged significantly.",
			finalScore, recon.TotalScore, w*100, len(totals), avg,
		)
	} else {
		finalScore = avg
		feedback = fmt.Sprintf(
			"Final score %.1f/100, averaged over %d completed reviews.",
			finalScore, len(totals),
		)
	}
	finalScore = math.Round(finalScore*100) / 100

	award := &model.Award{
		ProposalID:    proposalID,
		SubmitterID:   proposal.SubmitterID,
		FinalScore:    finalScore,
		Status:        model.AwardPending,
		FundingAmount: proposal.EstimatedBudget,
		Feedback:      feedback,
	}
	if err := s.repo.Award.Upsert(ctx, award); err != nil {
		s.logger.Error("保存资助记录失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("资助记录已定稿",
		zap.String("proposal_id", proposalID),
		zap.Float64("final_score", finalScore),
		zap.Bool("reconciled", recon != nil),
	)

	resp := toAwardResponse(award)
	return &resp, nil
}

func (s *awardService) GetByProposal(ctx context.Context, proposalID string) (*dto.AwardResponse, error) {
	award, err := s.repo.Award.GetByProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAwardNotFound
		}
		return nil, err
	}
	resp := toAwardResponse(award)
	return &resp, nil
}

func (s *awardService) Decide(ctx context.Context, proposalID, adminID string, req *dto.DecideAwardRequest) (*dto.AwardResponse, error) {
	award, err := s.repo.Award.GetByProposal(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAwardNotFound
		}
		return nil, err
	}
	if award.Status != model.AwardPending {
		return nil, &InvalidStateError{Op: "decide_award", State: award.Status}
	}

	now := time.Now()
	if req.Approve {
		award.Status = model.AwardApproved
	} else {
		award.Status = model.AwardDeclined
	}
	if req.Feedback != "" {
		award.Feedback = req.Feedback
	}
	award.ApprovedBy = &adminID
	award.ApprovedAt = &now
	if err := s.repo.Award.Update(ctx, award); err != nil {
		s.logger.Error("更新资助记录失败", zap.Error(err))
		return nil, err
	}

	// 同步申请书终态
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err == nil {
		if req.Approve {
			proposal.Status = model.ProposalApproved
		} else {
			proposal.Status = model.ProposalRejected
		}
		if uerr := s.repo.Proposal.Update(ctx, proposal); uerr != nil {
			s.logger.Error("同步申请书终态失败", zap.Error(uerr))
		}
	}

	s.logger.Info("资助决定已生效",
		zap.String("proposal_id", proposalID),
		zap.String("status", award.Status),
		zap.String("decided_by", adminID),
	)

	resp := toAwardResponse(award)
	return &resp, nil
}
