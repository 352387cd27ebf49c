package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/config"
	"github.com/unibeninterns/server2-v2-sub000/internal/cluster"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// aiScoringTimeout 异步 AI 评分任务的超时上限
const aiScoringTimeout = 30 * time.Second

// AssignmentService 评审指派业务接口
type AssignmentService interface {
	// AssignReviewers 为申请书指派评审员（进入 under_review 时调用一次）
	AssignReviewers(ctx context.Context, proposalID string) (*dto.AssignmentResponse, error)
	// ReassignRegularReview 改派常规（human）评审；newReviewerID 为空时自动选择
	ReassignRegularReview(ctx context.Context, reviewID, newReviewerID string) (*dto.ReviewResponse, error)
	// ReassignReconciliationReview 改派/补派调解评审
	ReassignReconciliationReview(ctx context.Context, proposalID, newReviewerID string) (*dto.ReviewResponse, error)
}

type assignmentService struct {
	repo     *repository.Repository
	cfg      *config.ReviewConfig
	reviews  ReviewService
	notifier Notifier
	logger   *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
// 依赖显式注入：指派引擎持有评分跟踪器引用用于派发 AI 评分任务
func NewAssignmentService(
	repo *repository.Repository,
	cfg *config.ReviewConfig,
	reviews ReviewService,
	notifier Notifier,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{
		repo:     repo,
		cfg:      cfg,
		reviews:  reviews,
		notifier: notifier,
		logger:   logger,
	}
}

// eligibleCandidates 解析申请人学院的同行学院并加载符合条件的候选评审员。
// 集群解析与学院映射统一经由 cluster 包，不在别处维护副本。
func eligibleCandidates(
	ctx context.Context,
	repo *repository.Repository,
	facultyTitle string,
	excludeUserIDs []string,
) (peers []string, cands []reviewerCandidate, err error) {
	peers, err = cluster.PeerFaculties(facultyTitle)
	if err != nil {
		return nil, nil, &NoEligibleFacultyError{Faculty: facultyTitle, Reason: err.Error()}
	}
	if len(peers) == 0 {
		return nil, nil, &NoEligibleFacultyError{Faculty: facultyTitle, Reason: "所属集群为空"}
	}

	faculties, err := repo.Faculty.ListByTitles(ctx, peers)
	if err != nil {
		return nil, nil, err
	}
	if len(faculties) == 0 {
		return peers, nil, &NoEligibleFacultyError{Faculty: facultyTitle, Reason: "同行学院未登记在参照数据中"}
	}

	facultyIDs := make([]string, 0, len(faculties))
	for _, f := range faculties {
		facultyIDs = append(facultyIDs, f.FacultyID)
	}

	users, err := repo.User.ListEligibleReviewers(ctx, facultyIDs, excludeUserIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(users) == 0 {
		return peers, nil, nil
	}

	userIDs := make([]string, 0, len(users))
	for _, u := range users {
		userIDs = append(userIDs, u.UserID)
	}
	workloads, err := repo.Review.WorkloadByReviewers(ctx, userIDs)
	if err != nil {
		return nil, nil, err
	}

	cands = make([]reviewerCandidate, 0, len(users))
	for _, u := range users {
		cands = append(cands, reviewerCandidate{user: u, workload: workloads[u.UserID]})
	}
	return peers, cands, nil
}

// ════════════════════════════════════════════════════════════
// AssignReviewers — 指派引擎
// ════════════════════════════════════════════════════════════
//
// 流程：解析同行学院 → 加载候选 → 多样性优先选取至多 2 人 →
// 创建 human 评审 + AI 评审 → 申请书转入 under_review →
// 异步派发 AI 评分 + best-effort 指派通知

func (s *assignmentService) AssignReviewers(ctx context.Context, proposalID string) (*dto.AssignmentResponse, error) {
	// 1. 加载申请书
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		s.logger.Error("查询申请书失败", zap.Error(err))
		return nil, err
	}
	// 指派只在 submitted 状态下执行一次，杜绝重复指派产生多余评审记录
	if proposal.Status != model.ProposalSubmitted {
		return nil, &InvalidStateError{Op: "assign_reviewers", State: proposal.Status}
	}
	if proposal.Submitter == nil || proposal.Submitter.Faculty == nil {
		return nil, &NoEligibleFacultyError{Faculty: "", Reason: "申请人未关联学院"}
	}

	facultyTitle := proposal.Submitter.Faculty.Title

	// 2. 同行学院 + 候选评审员
	peers, cands, err := eligibleCandidates(ctx, s.repo, facultyTitle, []string{proposal.SubmitterID})
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		// 目标 2 人，至少 1 人才可降级指派
		return nil, &InsufficientReviewersError{Faculties: peers}
	}

	// 3. 多样性优先选取
	ranked := rankCandidates(cands)
	selected := selectDiverse(ranked, s.cfg.ReviewersPerProposal)

	// 4. 截止日期 = 5 个工作日后
	now := time.Now()
	due := addBusinessDays(now, s.cfg.DueBusinessDays)

	// 5. 创建 human 评审与 AI 评审
	for _, c := range selected {
		reviewerID := c.user.UserID
		review := &model.Review{
			ProposalID: proposal.ProposalID,
			ReviewerID: &reviewerID,
			ReviewType: model.ReviewTypeHuman,
			Status:     model.ReviewInProgress,
			DueDate:    due,
		}
		if err := s.repo.Review.Create(ctx, review); err != nil {
			s.logger.Error("创建评审记录失败", zap.String("reviewer_id", reviewerID), zap.Error(err))
			return nil, err
		}
	}

	aiReview := &model.Review{
		ProposalID: proposal.ProposalID,
		ReviewType: model.ReviewTypeAI,
		Status:     model.ReviewInProgress,
		DueDate:    now, // AI 评审立即到期，由异步任务即时完成
	}
	if err := s.repo.Review.Create(ctx, aiReview); err != nil {
		s.logger.Error("创建 AI 评审记录失败", zap.Error(err))
		return nil, err
	}

	// 6. 申请书状态转移
	proposal.Status = model.ProposalUnderReview
	proposal.ReviewStatus = model.ReviewStatusPending
	if err := s.repo.Proposal.Update(ctx, proposal); err != nil {
		s.logger.Error("更新申请书状态失败", zap.Error(err))
		return nil, err
	}

	// 7. 异步派发 AI 评分（fire-and-forget，失败只记日志）
	aiReviewID := aiReview.ReviewID
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), aiScoringTimeout)
		defer cancel()
		if err := s.reviews.CompleteAIReview(bgCtx, aiReviewID); err != nil {
			s.logger.Error("AI 评分任务失败",
				zap.String("review_id", aiReviewID),
				zap.String("proposal_id", proposal.ProposalID),
				zap.Error(err),
			)
		}
	}()

	// best-effort 指派通知（逐收件人，失败不回滚指派）
	reviewers := make([]dto.UserResponse, 0, len(selected))
	for _, c := range selected {
		u := c.user
		s.notifier.ReviewAssigned(ctx, &u, proposal, due)
		reviewers = append(reviewers, toUserResponse(&u))
	}

	s.logger.Info("评审指派完成",
		zap.String("proposal_id", proposal.ProposalID),
		zap.Int("reviewers", len(selected)),
		zap.Time("due_date", due),
	)

	return &dto.AssignmentResponse{
		Reviewers:  reviewers,
		AIReviewID: aiReviewID,
		DueDate:    due,
	}, nil
}

// ════════════════════════════════════════════════════════════
// ReassignRegularReview — 常规评审改派
// ════════════════════════════════════════════════════════════

func (s *assignmentService) ReassignRegularReview(ctx context.Context, reviewID, newReviewerID string) (*dto.ReviewResponse, error) {
	review, err := s.repo.Review.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		s.logger.Error("查询评审记录失败", zap.Error(err))
		return nil, err
	}

	if review.ReviewType != model.ReviewTypeHuman {
		return nil, &InvalidStateError{Op: "reassign_regular_review", State: review.ReviewType}
	}
	if review.Status == model.ReviewCompleted {
		return nil, &AlreadyCompletedError{ReviewID: review.ReviewID}
	}
	proposal := review.Proposal
	if proposal == nil || proposal.Submitter == nil || proposal.Submitter.Faculty == nil {
		return nil, &NoEligibleFacultyError{Faculty: "", Reason: "申请人未关联学院"}
	}

	// 排除该申请书上的所有已指派评审员
	siblings, err := s.repo.Review.ListByProposal(ctx, review.ProposalID)
	if err != nil {
		s.logger.Error("查询申请书评审列表失败", zap.Error(err))
		return nil, err
	}
	exclude := []string{proposal.SubmitterID}
	usedFaculties := make(map[string]bool)
	for _, rv := range siblings {
		if rv.ReviewerID != nil {
			exclude = append(exclude, *rv.ReviewerID)
			if rv.ReviewID != review.ReviewID && rv.Reviewer != nil && rv.Reviewer.FacultyID != nil {
				usedFaculties[*rv.Reviewer.FacultyID] = true
			}
		}
	}

	facultyTitle := proposal.Submitter.Faculty.Title
	peers, cands, err := eligibleCandidates(ctx, s.repo, facultyTitle, exclude)
	if err != nil {
		return nil, err
	}

	var chosen *model.User
	if newReviewerID != "" {
		// 指定改派：校验候选资格
		for i := range cands {
			if cands[i].user.UserID == newReviewerID {
				chosen = &cands[i].user
				break
			}
		}
		if chosen == nil {
			return nil, ErrReviewerIneligible
		}
	} else {
		// 自动选择：优先未覆盖的学院
		if len(cands) == 0 {
			return nil, &InsufficientReviewersError{Faculties: peers}
		}
		ranked := rankCandidates(cands)
		for i := range ranked {
			fid := ""
			if ranked[i].user.FacultyID != nil {
				fid = *ranked[i].user.FacultyID
			}
			if !usedFaculties[fid] {
				chosen = &ranked[i].user
				break
			}
		}
		if chosen == nil {
			chosen = &ranked[0].user
		}
	}

	due := addBusinessDays(time.Now(), s.cfg.DueBusinessDays)
	review.ReviewerID = &chosen.UserID
	review.Reviewer = chosen
	review.DueDate = due
	review.Status = model.ReviewInProgress
	if err := s.repo.Review.Update(ctx, review); err != nil {
		s.logger.Error("改派评审失败", zap.Error(err))
		return nil, err
	}

	s.notifier.ReviewAssigned(ctx, chosen, proposal, due)

	s.logger.Info("评审已改派",
		zap.String("review_id", review.ReviewID),
		zap.String("new_reviewer_id", chosen.UserID),
	)

	resp := toReviewResponse(review)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// ReassignReconciliationReview — 调解评审改派/补派
// ════════════════════════════════════════════════════════════
//
// 仅在 proposal.status = revision_requested 且 reviewStatus = pending 时允许；
// 调解评审不存在时创建，存在时就地更新

func (s *assignmentService) ReassignReconciliationReview(ctx context.Context, proposalID, newReviewerID string) (*dto.ReviewResponse, error) {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		s.logger.Error("查询申请书失败", zap.Error(err))
		return nil, err
	}
	if proposal.Status != model.ProposalRevisionRequested || proposal.ReviewStatus != model.ReviewStatusPending {
		return nil, &InvalidStateError{Op: "reassign_reconciliation_review", State: proposal.Status + "/" + proposal.ReviewStatus}
	}
	if proposal.Submitter == nil || proposal.Submitter.Faculty == nil {
		return nil, &NoEligibleFacultyError{Faculty: "", Reason: "申请人未关联学院"}
	}

	reviews, err := s.repo.Review.ListByProposal(ctx, proposalID)
	if err != nil {
		s.logger.Error("查询申请书评审列表失败", zap.Error(err))
		return nil, err
	}

	// 排除所有 human 评审员与当前调解持有人
	var existing *model.Review
	exclude := []string{proposal.SubmitterID}
	totals := make([]int, 0, len(reviews))
	for i := range reviews {
		rv := &reviews[i]
		if rv.IsReconciliation() {
			existing = rv
			if rv.ReviewerID != nil {
				exclude = append(exclude, *rv.ReviewerID)
			}
			continue
		}
		if rv.ReviewType == model.ReviewTypeHuman && rv.ReviewerID != nil {
			exclude = append(exclude, *rv.ReviewerID)
		}
		if rv.Status == model.ReviewCompleted {
			totals = append(totals, rv.TotalScore)
		}
	}

	facultyTitle := proposal.Submitter.Faculty.Title
	peers, cands, err := eligibleCandidates(ctx, s.repo, facultyTitle, exclude)
	if err != nil {
		return nil, err
	}

	var chosen *model.User
	if newReviewerID != "" {
		for i := range cands {
			if cands[i].user.UserID == newReviewerID {
				chosen = &cands[i].user
				break
			}
		}
		if chosen == nil {
			return nil, ErrReviewerIneligible
		}
	} else {
		if len(cands) == 0 {
			return nil, &NoReconciliationReviewerError{Faculties: peers}
		}
		ranked := rankForReconciliation(cands)
		chosen = &ranked[0].user
	}

	due := addBusinessDays(time.Now(), s.cfg.DueBusinessDays)
	if existing != nil {
		existing.ReviewerID = &chosen.UserID
		existing.Reviewer = chosen
		existing.DueDate = due
		existing.Status = model.ReviewInProgress
		if err := s.repo.Review.Update(ctx, existing); err != nil {
			s.logger.Error("更新调解评审失败", zap.Error(err))
			return nil, err
		}
	} else {
		existing = &model.Review{
			ProposalID: proposalID,
			ReviewerID: &chosen.UserID,
			Reviewer:   chosen,
			ReviewType: model.ReviewTypeReconciliation,
			Status:     model.ReviewInProgress,
			DueDate:    due,
		}
		if err := s.repo.Review.Create(ctx, existing); err != nil {
			s.logger.Error("创建调解评审失败", zap.Error(err))
			return nil, err
		}
	}

	s.notifier.ReconciliationAssigned(ctx, chosen, proposal, due, buildReconciliationNotice(totals))

	resp := toReviewResponse(existing)
	return &resp, nil
}

// buildReconciliationNotice 构造调解通知内容：评审数、四舍五入后的均分、原始分列表
func buildReconciliationNotice(totals []int) ReconciliationNotice {
	notice := ReconciliationNotice{ReviewCount: len(totals), Scores: totals}
	if len(totals) > 0 {
		sum := 0
		for _, t := range totals {
			sum += t
		}
		avg := float64(sum) / float64(len(totals))
		notice.AverageScore = float64(int(avg*10+0.5)) / 10
	}
	return notice
}
