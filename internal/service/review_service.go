package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/config"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// ReviewService 评分提交与完成度跟踪业务接口
type ReviewService interface {
	// SubmitReview 评审员提交评分与评语（completed 为终态，提交后不可修改）
	SubmitReview(ctx context.Context, reviewID, reviewerID string, req *dto.SubmitReviewRequest) (*dto.SubmitReviewResponse, error)
	// CompleteAIReview 执行 AI 基线评审并走统一的完成跟踪路径
	CompleteAIReview(ctx context.Context, reviewID string) error
	// GetReview 查询单条评审记录
	GetReview(ctx context.Context, reviewID string) (*dto.ReviewResponse, error)
	// ListMyReviews 查询当前评审员名下的评审任务
	ListMyReviews(ctx context.Context, reviewerID string, statuses []string) ([]dto.ReviewResponse, error)
}

type reviewService struct {
	repo        *repository.Repository
	cfg         *config.ReviewConfig
	scorer      AIScorer
	discrepancy DiscrepancyService
	awards      AwardService
	logger      *zap.Logger
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(
	repo *repository.Repository,
	cfg *config.ReviewConfig,
	scorer AIScorer,
	discrepancy DiscrepancyService,
	awards AwardService,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		repo:        repo,
		cfg:         cfg,
		scorer:      scorer,
		discrepancy: discrepancy,
		awards:      awards,
		logger:      logger,
	}
}

func (s *reviewService) SubmitReview(ctx context.Context, reviewID, reviewerID string, req *dto.SubmitReviewRequest) (*dto.SubmitReviewResponse, error) {
	review, err := s.repo.Review.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		s.logger.Error("查询评审记录失败", zap.Error(err))
		return nil, err
	}
	if review.ReviewerID == nil || *review.ReviewerID != reviewerID {
		return nil, ErrNotReviewOwner
	}
	if review.Status == model.ReviewCompleted {
		return nil, &AlreadyCompletedError{ReviewID: review.ReviewID}
	}

	scores := req.Scores.ToScoreSet()
	if err := scores.Validate(); err != nil {
		return nil, &ValidationError{Detail: err.Error()}
	}

	now := time.Now()
	review.Scores = scores
	review.Comments = req.Comments.ToCommentSet()
	review.TotalScore = scores.Total()
	review.Status = model.ReviewCompleted
	review.CompletedAt = &now
	if err := s.repo.Review.Update(ctx, review); err != nil {
		s.logger.Error("保存评审结果失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("评审已提交",
		zap.String("review_id", review.ReviewID),
		zap.String("reviewer_id", reviewerID),
		zap.Int("total_score", review.TotalScore),
	)

	allCompleted, analysis, err := s.trackCompletion(ctx, review.ProposalID)
	if err != nil {
		// 提交本身已落库成功，后续流程失败不应向评审员返回失败
		s.logger.Error("评审完成跟踪失败",
			zap.String("proposal_id", review.ProposalID),
			zap.Error(err),
		)
	}

	return &dto.SubmitReviewResponse{
		Review:       toReviewResponse(review),
		AllCompleted: allCompleted,
		Analysis:     analysis,
	}, nil
}

func (s *reviewService) CompleteAIReview(ctx context.Context, reviewID string) error {
	review, err := s.repo.Review.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if review.ReviewType != model.ReviewTypeAI {
		return &InvalidStateError{Op: "complete_ai_review", State: review.ReviewType}
	}
	// 幂等：重复派发直接跳过
	if review.Status == model.ReviewCompleted {
		return nil
	}

	scores, comments, err := s.scorer.GenerateReview(ctx, review.Proposal)
	if err != nil {
		return err
	}

	now := time.Now()
	review.Scores = scores
	review.Comments = comments
	review.TotalScore = scores.Total()
	review.Status = model.ReviewCompleted
	review.CompletedAt = &now
	if err := s.repo.Review.Update(ctx, review); err != nil {
		return err
	}

	s.logger.Info("AI 评审完成",
		zap.String("review_id", review.ReviewID),
		zap.String("proposal_id", review.ProposalID),
		zap.Int("total_score", review.TotalScore),
	)

	// AI 与人工共用同一条完成跟踪路径，完成顺序不影响触发
	if _, _, err := s.trackCompletion(ctx, review.ProposalID); err != nil {
		s.logger.Error("评审完成跟踪失败",
			zap.String("proposal_id", review.ProposalID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *reviewService) GetReview(ctx context.Context, reviewID string) (*dto.ReviewResponse, error) {
	review, err := s.repo.Review.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	resp := toReviewResponse(review)
	return &resp, nil
}

func (s *reviewService) ListMyReviews(ctx context.Context, reviewerID string, statuses []string) ([]dto.ReviewResponse, error) {
	reviews, err := s.repo.Review.ListByReviewer(ctx, reviewerID, statuses)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}
	return out, nil
}

// ════════════════════════════════════════════════════════════
// 完成跟踪
// ════════════════════════════════════════════════════════════
//
// 每次评审完成（人工提交或 AI 回填）后调用一次。
// "全部完成 → 分歧检测/定稿" 的推进通过 review_status 的条件更新
// （pending → finalizing）串行化：并发完成的最后两条评审中
// 只有一条能赢得转移，另一条直接返回，杜绝重复定稿

func (s *reviewService) trackCompletion(ctx context.Context, proposalID string) (bool, *dto.DiscrepancyAnalysis, error) {
	reviews, err := s.repo.Review.ListByProposal(ctx, proposalID)
	if err != nil {
		return false, nil, err
	}

	analysis := analyzeSpread(reviews)

	var recon *model.Review
	allRegularDone := true
	for i := range reviews {
		rv := &reviews[i]
		if rv.IsReconciliation() {
			recon = rv
			continue
		}
		if rv.Status != model.ReviewCompleted {
			allRegularDone = false
		}
	}
	if !allRegularDone {
		return false, analysis, nil
	}
	// 调解评审尚未完成：等待其提交后再次进入本路径
	if recon != nil && recon.Status != model.ReviewCompleted {
		return false, analysis, nil
	}

	won, err := s.repo.Proposal.TransitionReviewStatus(ctx, proposalID,
		model.ReviewStatusPending, model.ReviewStatusFinalizing)
	if err != nil {
		return true, analysis, err
	}
	if !won {
		// 另一并发完成已接管推进，或申请书已定稿
		return true, analysis, nil
	}

	if recon != nil {
		// 调解评审已完成：直接定稿（加权算分在资助服务内处理）
		if err := s.finalize(ctx, proposalID); err != nil {
			return true, analysis, err
		}
		return true, analysis, nil
	}

	// 常规评审全部完成：先做分歧检测
	check, err := s.discrepancy.CheckDiscrepancy(ctx, proposalID)
	if err != nil {
		// 检测失败（含无可用调解评审员）：回退到 pending 等待人工介入
		if _, rerr := s.repo.Proposal.TransitionReviewStatus(ctx, proposalID,
			model.ReviewStatusFinalizing, model.ReviewStatusPending); rerr != nil {
			s.logger.Error("回退评审进度失败", zap.String("proposal_id", proposalID), zap.Error(rerr))
		}
		return true, analysis, err
	}
	if check.HasDiscrepancy {
		// 已创建调解评审：回到 pending，待调解完成后再定稿
		if _, err := s.repo.Proposal.TransitionReviewStatus(ctx, proposalID,
			model.ReviewStatusFinalizing, model.ReviewStatusPending); err != nil {
			return true, analysis, err
		}
		return true, analysis, nil
	}

	if err := s.finalize(ctx, proposalID); err != nil {
		return true, analysis, err
	}
	return true, analysis, nil
}

// finalize 计算最终得分、落资助记录并将评审进度推进到 reviewed
func (s *reviewService) finalize(ctx context.Context, proposalID string) error {
	if _, err := s.awards.Finalize(ctx, proposalID); err != nil {
		return err
	}
	if _, err := s.repo.Proposal.TransitionReviewStatus(ctx, proposalID,
		model.ReviewStatusFinalizing, model.ReviewStatusReviewed); err != nil {
		return err
	}
	s.logger.Info("申请书评审定稿", zap.String("proposal_id", proposalID))
	return nil
}

// analyzeSpread 统计各评分项在已完成评审间的分歧幅度，
// spread_percent = (最高分-最低分)/该项满分 × 100，按降序排列
func analyzeSpread(reviews []model.Review) *dto.DiscrepancyAnalysis {
	var completed []*model.Review
	for i := range reviews {
		if reviews[i].Status == model.ReviewCompleted {
			completed = append(completed, &reviews[i])
		}
	}
	if len(completed) == 0 {
		return nil
	}

	criteria := make([]dto.CriterionSpread, 0, len(model.CriterionOrder))
	for _, c := range model.CriterionOrder {
		min, max, sum := -1, -1, 0
		for _, rv := range completed {
			v := rv.Scores.Get(c)
			if min == -1 || v < min {
				min = v
			}
			if v > max {
				max = v
			}
			sum += v
		}
		criteria = append(criteria, dto.CriterionSpread{
			Criterion:     string(c),
			Min:           min,
			Max:           max,
			Avg:           float64(sum) / float64(len(completed)),
			SpreadPercent: float64(max-min) / float64(model.CriterionMax[c]) * 100,
		})
	}
	// 同分歧幅度时保持评分标准固有顺序
	sort.SliceStable(criteria, func(i, j int) bool {
		return criteria[i].SpreadPercent > criteria[j].SpreadPercent
	})

	return &dto.DiscrepancyAnalysis{
		ReviewCount: len(completed),
		Criteria:    criteria,
	}
}
