package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/unibeninterns/server2-v2-sub000/internal/cluster"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// fixedScorer 固定评分的 AI 占位器，测试中用于控制 AI 总分
type fixedScorer struct {
	scores model.ScoreSet
}

func (s fixedScorer) GenerateReview(_ context.Context, _ *model.Proposal) (model.ScoreSet, model.CommentSet, error) {
	return s.scores, model.CommentSet{Overall: "fixed"}, nil
}

// scoresWithTotal 基准 75 分的十项评分，delta 摊到前三项上微调总分
func scoresWithTotal(delta int) dto.ScoresPayload {
	p := dto.ScoresPayload{
		Relevance:                    8,
		Originality:                  11,
		Clarity:                      7,
		Methodology:                  11,
		LiteratureReview:             8,
		TeamComposition:              7,
		FeasibilityAndTimeline:       8,
		BudgetJustification:          7,
		ExpectedOutcomes:             4,
		SustainabilityAndScalability: 4,
	}
	switch delta {
	case -3:
		p.Relevance, p.Originality, p.Clarity = 7, 10, 6
	case 3:
		p.Relevance, p.Originality, p.Clarity = 9, 12, 8
	case -25:
		// 总分 50
		p.Relevance, p.Originality, p.Clarity = 4, 5, 4
		p.Methodology, p.LiteratureReview, p.TeamComposition = 7, 5, 5
		p.FeasibilityAndTimeline, p.BudgetJustification = 6, 6
	case 15:
		// 总分 90
		p.Relevance, p.Originality, p.Clarity = 10, 14, 9
		p.Methodology, p.LiteratureReview = 14, 9
		p.FeasibilityAndTimeline, p.BudgetJustification = 9, 9
		p.TeamComposition, p.ExpectedOutcomes, p.SustainabilityAndScalability = 8, 4, 4
	}
	return p
}

// reviewEnv 评分流程测试环境：2 条 human + 1 条 AI 评审已就位
type reviewEnv struct {
	f        *fixture
	svc      ReviewService
	notifier *mockNotifier
	proposal *model.Proposal
	r1, r2   *model.User
	rv1, rv2 *model.Review
	rvAI     *model.Review
}

func setupReviewEnv(aiTotal dto.ScoresPayload) *reviewEnv {
	f := newFixture()
	law := f.addFaculty(cluster.Law, "LAW")
	social := f.addFaculty(cluster.SocialSciences, "SSC")
	mgmt := f.addFaculty(cluster.ManagementSciences, "MGS")

	r1 := f.addReviewer("ada", social)
	r2 := f.addReviewer("bola", mgmt)
	f.addReviewer("chi", social) // 调解候选

	researcher := f.addResearcher("dike", law)
	proposal := f.addProposal(researcher, model.ProposalUnderReview)

	rv1 := f.addReview(proposal, r1, model.ReviewTypeHuman, model.ReviewInProgress)
	rv2 := f.addReview(proposal, r2, model.ReviewTypeHuman, model.ReviewInProgress)
	rvAI := f.addReview(proposal, nil, model.ReviewTypeAI, model.ReviewInProgress)

	cfg := testReviewConfig()
	notifier := newMockNotifier()
	logger := zap.NewNop()

	awardSvc := NewAwardService(f.repo(), cfg, logger)
	discSvc := NewDiscrepancyService(f.repo(), cfg, notifier, logger)
	svc := NewReviewService(f.repo(), cfg, fixedScorer{scores: aiTotal.ToScoreSet()}, discSvc, awardSvc, logger)

	return &reviewEnv{
		f: f, svc: svc, notifier: notifier, proposal: proposal,
		r1: r1, r2: r2, rv1: rv1, rv2: rv2, rvAI: rvAI,
	}
}

func TestSubmitReview_FullCycleWithoutDiscrepancy(t *testing.T) {
	// AI 75 + 人工 72/78：均分 75，无显著分歧
	env := setupReviewEnv(scoresWithTotal(0))
	ctx := context.Background()

	if err := env.svc.CompleteAIReview(ctx, env.rvAI.ReviewID); err != nil {
		t.Fatalf("AI 评审完成失败: %v", err)
	}

	resp1, err := env.svc.SubmitReview(ctx, env.rv1.ReviewID, env.r1.UserID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(-3)})
	if err != nil {
		t.Fatalf("第一次提交失败: %v", err)
	}
	if resp1.AllCompleted {
		t.Error("仍有未完成评审，不应标记 all_completed")
	}
	if resp1.Analysis == nil || resp1.Analysis.ReviewCount != 2 {
		t.Errorf("分歧分析应覆盖 2 条已完成评审，实际 %+v", resp1.Analysis)
	}

	resp2, err := env.svc.SubmitReview(ctx, env.rv2.ReviewID, env.r2.UserID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(3)})
	if err != nil {
		t.Fatalf("第二次提交失败: %v", err)
	}
	if !resp2.AllCompleted {
		t.Fatal("全部评审完成后应标记 all_completed")
	}

	// 无分歧 → 直接定稿
	if env.proposal.ReviewStatus != model.ReviewStatusReviewed {
		t.Errorf("评审进度应为 reviewed，实际 %s", env.proposal.ReviewStatus)
	}
	award, err := env.f.repo().Award.GetByProposal(ctx, env.proposal.ProposalID)
	if err != nil {
		t.Fatalf("应已创建资助记录: %v", err)
	}
	if award.FinalScore != 75.0 {
		t.Errorf("最终得分期望 75.0，实际 %.2f", award.FinalScore)
	}
	if award.Status != model.AwardPending {
		t.Errorf("资助初始状态应为 pending，实际 %s", award.Status)
	}
	if award.FundingAmount != env.proposal.EstimatedBudget {
		t.Errorf("资助金额应取预算 %.0f，实际 %.0f", env.proposal.EstimatedBudget, award.FundingAmount)
	}
}

func TestSubmitReview_DiscrepancyTriggersReconciliation(t *testing.T) {
	// AI 70 + 人工 50/90：均分 70，阈值 14，偏差 20 → 显著分歧
	ai := dto.ScoresPayload{
		Relevance: 7, Originality: 10, Clarity: 7, Methodology: 11,
		LiteratureReview: 7, TeamComposition: 7, FeasibilityAndTimeline: 7,
		BudgetJustification: 7, ExpectedOutcomes: 4, SustainabilityAndScalability: 3,
	} // 总分 70
	env := setupReviewEnv(ai)
	ctx := context.Background()

	if err := env.svc.CompleteAIReview(ctx, env.rvAI.ReviewID); err != nil {
		t.Fatalf("AI 评审完成失败: %v", err)
	}
	if _, err := env.svc.SubmitReview(ctx, env.rv1.ReviewID, env.r1.UserID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(-25)}); err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	resp, err := env.svc.SubmitReview(ctx, env.rv2.ReviewID, env.r2.UserID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(15)})
	if err != nil {
		t.Fatalf("提交失败: %v", err)
	}
	if !resp.AllCompleted {
		t.Fatal("常规评审已全部完成")
	}

	// 分歧 → 创建调解评审，评审进度回到 pending 等待调解
	if env.proposal.Status != model.ProposalRevisionRequested {
		t.Errorf("申请书应转入 revision_requested，实际 %s", env.proposal.Status)
	}
	if env.proposal.ReviewStatus != model.ReviewStatusPending {
		t.Errorf("评审进度应回到 pending，实际 %s", env.proposal.ReviewStatus)
	}

	reviews, _ := env.f.repo().Review.ListByProposal(ctx, env.proposal.ProposalID)
	var recon *model.Review
	for i := range reviews {
		if reviews[i].IsReconciliation() {
			recon = &reviews[i]
		}
	}
	if recon == nil {
		t.Fatal("应已创建调解评审")
	}
	// 调解人不得是原评审员
	if *recon.ReviewerID == env.r1.UserID || *recon.ReviewerID == env.r2.UserID {
		t.Errorf("调解人不应为原评审员: %s", *recon.ReviewerID)
	}
	if len(env.notifier.reconciliation) != 1 {
		t.Errorf("应发送 1 条调解通知，实际 %d", len(env.notifier.reconciliation))
	}

	// 调解评审提交后加权定稿: 0.6×75 + 0.4×70 = 73.0
	_, err = env.svc.SubmitReview(ctx, recon.ReviewID, *recon.ReviewerID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(0)})
	if err != nil {
		t.Fatalf("调解提交失败: %v", err)
	}
	if env.proposal.ReviewStatus != model.ReviewStatusReviewed {
		t.Errorf("调解完成后应定稿，实际 %s", env.proposal.ReviewStatus)
	}
	award, err := env.f.repo().Award.GetByProposal(ctx, env.proposal.ProposalID)
	if err != nil {
		t.Fatalf("应已创建资助记录: %v", err)
	}
	if award.FinalScore != 73.0 {
		t.Errorf("加权最终得分期望 73.0，实际 %.2f", award.FinalScore)
	}
}

func TestSubmitReview_NotOwner(t *testing.T) {
	env := setupReviewEnv(scoresWithTotal(0))
	_, err := env.svc.SubmitReview(context.Background(), env.rv1.ReviewID, env.r2.UserID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(0)})
	if !errors.Is(err, ErrNotReviewOwner) {
		t.Errorf("期望 ErrNotReviewOwner，实际: %v", err)
	}
}

func TestSubmitReview_CompletedIsFinal(t *testing.T) {
	env := setupReviewEnv(scoresWithTotal(0))
	ctx := context.Background()

	if _, err := env.svc.SubmitReview(ctx, env.rv1.ReviewID, env.r1.UserID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(0)}); err != nil {
		t.Fatalf("首次提交应成功: %v", err)
	}

	_, err := env.svc.SubmitReview(ctx, env.rv1.ReviewID, env.r1.UserID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(3)})
	var completed *AlreadyCompletedError
	if !errors.As(err, &completed) {
		t.Errorf("重复提交应返回 AlreadyCompletedError，实际: %v", err)
	}
}

func TestSubmitReview_ScoreOutOfRange(t *testing.T) {
	env := setupReviewEnv(scoresWithTotal(0))
	bad := scoresWithTotal(0)
	bad.Originality = 16 // 超出上限 15

	_, err := env.svc.SubmitReview(context.Background(), env.rv1.ReviewID, env.r1.UserID,
		&dto.SubmitReviewRequest{Scores: bad})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("越界评分应返回 ValidationError，实际: %v", err)
	}
}

func TestSubmitReview_NotFound(t *testing.T) {
	env := setupReviewEnv(scoresWithTotal(0))
	_, err := env.svc.SubmitReview(context.Background(), "missing", env.r1.UserID,
		&dto.SubmitReviewRequest{Scores: scoresWithTotal(0)})
	if !errors.Is(err, ErrReviewNotFound) {
		t.Errorf("期望 ErrReviewNotFound，实际: %v", err)
	}
}

func TestCompleteAIReview_Idempotent(t *testing.T) {
	env := setupReviewEnv(scoresWithTotal(0))
	ctx := context.Background()

	if err := env.svc.CompleteAIReview(ctx, env.rvAI.ReviewID); err != nil {
		t.Fatalf("首次完成失败: %v", err)
	}
	first := env.f.reviews[env.rvAI.ReviewID].TotalScore

	// 重复派发直接跳过，不覆盖已有评分
	if err := env.svc.CompleteAIReview(ctx, env.rvAI.ReviewID); err != nil {
		t.Fatalf("重复派发应幂等: %v", err)
	}
	if env.f.reviews[env.rvAI.ReviewID].TotalScore != first {
		t.Error("重复派发不应改变评分")
	}
}

func TestCompleteAIReview_RejectsHumanReview(t *testing.T) {
	env := setupReviewEnv(scoresWithTotal(0))
	err := env.svc.CompleteAIReview(context.Background(), env.rv1.ReviewID)
	var invalidState *InvalidStateError
	if !errors.As(err, &invalidState) {
		t.Errorf("对 human 评审派发 AI 评分应返回 InvalidStateError，实际: %v", err)
	}
}

// ── 完成跟踪的并发推进 ──

func TestTrackCompletion_DoubleTriggerFinalizesOnce(t *testing.T) {
	// 全部评审已完成后连续触发两次推进：
	// 第二次在 pending→finalizing 的条件更新上落败，不得重复定稿
	env := setupReviewEnv(scoresWithTotal(0))
	ctx := context.Background()

	env.f.completeReview(env.rv1, 72)
	env.f.completeReview(env.rv2, 78)
	env.f.completeReview(env.rvAI, 75)

	svc := env.svc.(*reviewService)
	for i := 0; i < 2; i++ {
		handled, _, err := svc.trackCompletion(ctx, env.proposal.ProposalID)
		if err != nil {
			t.Fatalf("第 %d 次推进失败: %v", i+1, err)
		}
		if !handled {
			t.Fatalf("第 %d 次推进应报告已接管", i+1)
		}
	}

	if env.proposal.ReviewStatus != model.ReviewStatusReviewed {
		t.Errorf("评审进度应为 reviewed，实际 %s", env.proposal.ReviewStatus)
	}
	if len(env.f.awards) != 1 {
		t.Fatalf("应只产生 1 条资助记录，实际 %d", len(env.f.awards))
	}
	award, err := env.f.repo().Award.GetByProposal(ctx, env.proposal.ProposalID)
	if err != nil {
		t.Fatalf("查询资助记录失败: %v", err)
	}
	if award.FinalScore != 75.0 {
		t.Errorf("最终得分期望 75.0，实际 %.2f", award.FinalScore)
	}
}

func TestTrackCompletion_LosesTransitionSkipsFinalize(t *testing.T) {
	// 另一并发完成已把 review_status 推到 finalizing：
	// 本次触发直接让路，不定稿、不落资助记录
	env := setupReviewEnv(scoresWithTotal(0))
	ctx := context.Background()

	env.f.completeReview(env.rv1, 72)
	env.f.completeReview(env.rv2, 78)
	env.f.completeReview(env.rvAI, 75)
	env.proposal.ReviewStatus = model.ReviewStatusFinalizing

	handled, _, err := env.svc.(*reviewService).trackCompletion(ctx, env.proposal.ProposalID)
	if err != nil {
		t.Fatalf("落败路径不应报错: %v", err)
	}
	if !handled {
		t.Error("全部评审完成时应报告已接管")
	}
	if len(env.f.awards) != 0 {
		t.Errorf("落败方不应落资助记录，实际 %d 条", len(env.f.awards))
	}
	if env.proposal.ReviewStatus != model.ReviewStatusFinalizing {
		t.Errorf("评审进度不应被落败方改动，实际 %s", env.proposal.ReviewStatus)
	}
}

// ── analyzeSpread 测试 ──

func TestAnalyzeSpread_SortedBySpreadPercent(t *testing.T) {
	r1 := model.Review{Status: model.ReviewCompleted}
	r1.Scores.Set(model.CriterionRelevance, 2)    // spread 8/10 = 80%
	r1.Scores.Set(model.CriterionOriginality, 10) // spread 2/15 ≈ 13%
	r2 := model.Review{Status: model.ReviewCompleted}
	r2.Scores.Set(model.CriterionRelevance, 10)
	r2.Scores.Set(model.CriterionOriginality, 12)

	analysis := analyzeSpread([]model.Review{r1, r2})
	if analysis == nil || analysis.ReviewCount != 2 {
		t.Fatalf("期望覆盖 2 条评审，实际 %+v", analysis)
	}
	if analysis.Criteria[0].Criterion != string(model.CriterionRelevance) {
		t.Errorf("分歧最大的 relevance 应排首位，实际 %s", analysis.Criteria[0].Criterion)
	}
	if analysis.Criteria[0].SpreadPercent != 80.0 {
		t.Errorf("relevance 分歧幅度期望 80%%，实际 %.1f", analysis.Criteria[0].SpreadPercent)
	}
}

func TestAnalyzeSpread_NoCompletedReviews(t *testing.T) {
	if got := analyzeSpread([]model.Review{{Status: model.ReviewInProgress}}); got != nil {
		t.Errorf("无已完成评审时应返回 nil，实际 %+v", got)
	}
}
