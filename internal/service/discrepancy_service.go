package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/config"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// DiscrepancyService 分歧检测业务接口
type DiscrepancyService interface {
	// CheckDiscrepancy 检测申请书各评审总分是否存在显著分歧，
	// 有分歧时创建调解评审并通知调解人；重复调用幂等
	CheckDiscrepancy(ctx context.Context, proposalID string) (*dto.CheckDiscrepancyResponse, error)
}

type discrepancyService struct {
	repo     *repository.Repository
	cfg      *config.ReviewConfig
	notifier Notifier
	logger   *zap.Logger
}

// NewDiscrepancyService 创建 DiscrepancyService 实例
func NewDiscrepancyService(repo *repository.Repository, cfg *config.ReviewConfig, notifier Notifier, logger *zap.Logger) DiscrepancyService {
	return &discrepancyService{repo: repo, cfg: cfg, notifier: notifier, logger: logger}
}

// 分歧判定：阈值 = 均分 × 比例系数（默认 0.2），
// 任一总分与均分之差超过阈值即判定为显著分歧。
// 判定成立时申请书会转入 revision_requested（而非停留在 under_review）：
// 补派调解人的运营接口以该状态为前置条件，选不出调解人时才有人工接管的入口
func (s *discrepancyService) CheckDiscrepancy(ctx context.Context, proposalID string) (*dto.CheckDiscrepancyResponse, error) {
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
	exclude := []string{proposal.SubmitterID}
	totals := make([]int, 0, len(reviews))
	for i := range reviews {
		rv := &reviews[i]
		if rv.IsReconciliation() {
			recon = rv
			continue
		}
		if rv.ReviewType == model.ReviewTypeHuman && rv.ReviewerID != nil {
			exclude = append(exclude, *rv.ReviewerID)
		}
		if rv.Status == model.ReviewCompleted {
			totals = append(totals, rv.TotalScore)
		}
	}
	if len(totals) == 0 {
		return nil, ErrNoCompletedReviews
	}

	sum := 0
	for _, t := range totals {
		sum += t
	}
	avg := float64(sum) / float64(len(totals))
	threshold := avg * s.cfg.DiscrepancyRatio

	// 幂等短路：调解评审已存在，直接返回现状
	if recon != nil {
		resp := &dto.CheckDiscrepancyResponse{
			HasDiscrepancy:       true,
			Scores:               totals,
			AverageScore:         avg,
			DiscrepancyThreshold: threshold,
			DueDate:              &recon.DueDate,
		}
		if recon.Reviewer != nil {
			r := toUserResponse(recon.Reviewer)
			resp.ReconciliationReviewer = &r
		}
		return resp, nil
	}

	hasDiscrepancy := false
	for _, t := range totals {
		if math.Abs(float64(t)-avg) > threshold {
			hasDiscrepancy = true
			break
		}
	}

	resp := &dto.CheckDiscrepancyResponse{
		HasDiscrepancy:       hasDiscrepancy,
		Scores:               totals,
		AverageScore:         avg,
		DiscrepancyThreshold: threshold,
	}
	if !hasDiscrepancy {
		return resp, nil
	}

	s.logger.Warn("检测到评分显著分歧",
		zap.String("proposal_id", proposalID),
		zap.Ints("scores", totals),
		zap.Float64("average", avg),
		zap.Float64("threshold", threshold),
	)

	// 有分歧先转入 revision_requested，即使后面选不出调解人，
	// 运营也可以通过补派接口接管
	if proposal.Status != model.ProposalRevisionRequested {
		proposal.Status = model.ProposalRevisionRequested
		if err := s.repo.Proposal.Update(ctx, proposal); err != nil {
			s.logger.Error("更新申请书状态失败", zap.Error(err))
			return nil, err
		}
	}

	if proposal.Submitter == nil || proposal.Submitter.Faculty == nil {
		return nil, &NoEligibleFacultyError{Faculty: "", Reason: "申请人未关联学院"}
	}
	peers, cands, err := eligibleCandidates(ctx, s.repo, proposal.Submitter.Faculty.Title, exclude)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, &NoReconciliationReviewerError{Faculties: peers}
	}

	ranked := rankForReconciliation(cands)
	chosen := ranked[0].user

	due := addBusinessDays(time.Now(), s.cfg.DueBusinessDays)
	reconReview := &model.Review{
		ProposalID: proposalID,
		ReviewerID: &chosen.UserID,
		Reviewer:   &chosen,
		ReviewType: model.ReviewTypeReconciliation,
		Status:     model.ReviewInProgress,
		DueDate:    due,
	}
	if err := s.repo.Review.Create(ctx, reconReview); err != nil {
		s.logger.Error("创建调解评审失败", zap.Error(err))
		return nil, err
	}

	s.notifier.ReconciliationAssigned(ctx, &chosen, proposal, due, buildReconciliationNotice(totals))

	s.logger.Info("调解评审已指派",
		zap.String("proposal_id", proposalID),
		zap.String("reviewer_id", chosen.UserID),
		zap.Time("due_date", due),
	)

	reviewer := toUserResponse(&chosen)
	resp.ReconciliationReviewer = &reviewer
	resp.DueDate = &due
	return resp, nil
}
