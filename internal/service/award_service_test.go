package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/unibeninterns/server2-v2-sub000/internal/cluster"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

type awardEnv struct {
	f        *fixture
	svc      AwardService
	proposal *model.Proposal
}

// setupAward totals 为常规已完成评审总分，reconTotal > 0 时追加已完成的调解评审
func setupAward(totals []int, reconTotal int) *awardEnv {
	f := newFixture()
	law := f.addFaculty(cluster.Law, "LAW")
	social := f.addFaculty(cluster.SocialSciences, "SSC")

	researcher := f.addResearcher("dike", law)
	proposal := f.addProposal(researcher, model.ProposalUnderReview)

	for i, total := range totals {
		reviewer := f.addReviewer("reviewer"+strings.Repeat("x", i+1), social)
		f.completeReview(f.addReview(proposal, reviewer, model.ReviewTypeHuman, model.ReviewInProgress), total)
	}
	if reconTotal > 0 {
		mediator := f.addReviewer("mediator", social)
		f.completeReview(f.addReview(proposal, mediator, model.ReviewTypeReconciliation, model.ReviewInProgress), reconTotal)
	}

	svc := NewAwardService(f.repo(), testReviewConfig(), zap.NewNop())
	return &awardEnv{f: f, svc: svc, proposal: proposal}
}

func TestFinalize_AverageOfRegularReviews(t *testing.T) {
	env := setupAward([]int{80, 60}, 0)

	resp, err := env.svc.Finalize(context.Background(), env.proposal.ProposalID)
	if err != nil {
		t.Fatalf("定稿失败: %v", err)
	}
	if resp.FinalScore != 70.0 {
		t.Errorf("最终得分期望 70.0，实际 %.2f", resp.FinalScore)
	}
	if resp.Status != model.AwardPending {
		t.Errorf("初始状态应为 pending，实际 %s", resp.Status)
	}
	if resp.FundingAmount != env.proposal.EstimatedBudget {
		t.Errorf("资助金额应取预算 %.0f，实际 %.0f", env.proposal.EstimatedBudget, resp.FundingAmount)
	}
	if strings.Contains(resp.Feedback, "reconciliation") {
		t.Error("无调解评审时反馈不应提及调解")
	}
}

func TestFinalize_WeightedWithReconciliation(t *testing.T) {
	// 常规均分 60，调解 80：0.6×80 + 0.4×60 = 72.0
	env := setupAward([]int{50, 70}, 80)

	resp, err := env.svc.Finalize(context.Background(), env.proposal.ProposalID)
	if err != nil {
		t.Fatalf("定稿失败: %v", err)
	}
	if resp.FinalScore != 72.0 {
		t.Errorf("加权最终得分期望 72.0，实际 %.2f", resp.FinalScore)
	}
	if !strings.Contains(resp.Feedback, "reconciliation") {
		t.Error("调解路径的反馈应说明调解评审的参与")
	}
}

func TestFinalize_IgnoresIncompleteReconciliation(t *testing.T) {
	// 调解评审未完成时按常规均分定稿
	env := setupAward([]int{50, 70}, 0)
	mediator := env.f.addReviewer("mediator", env.f.faculties["fac-SSC"])
	env.f.addReview(env.proposal, mediator, model.ReviewTypeReconciliation, model.ReviewInProgress)

	resp, err := env.svc.Finalize(context.Background(), env.proposal.ProposalID)
	if err != nil {
		t.Fatalf("定稿失败: %v", err)
	}
	if resp.FinalScore != 60.0 {
		t.Errorf("未完成的调解不应参与算分，期望 60.0，实际 %.2f", resp.FinalScore)
	}
}

func TestFinalize_UpsertReplay(t *testing.T) {
	env := setupAward([]int{80, 60}, 0)
	ctx := context.Background()

	if _, err := env.svc.Finalize(ctx, env.proposal.ProposalID); err != nil {
		t.Fatalf("首次定稿失败: %v", err)
	}

	// 追加一条评审后重放，应更新同一条资助记录
	extra := env.f.addReviewer("extra", env.f.faculties["fac-SSC"])
	env.f.completeReview(env.f.addReview(env.proposal, extra, model.ReviewTypeHuman, model.ReviewInProgress), 70)

	resp, err := env.svc.Finalize(ctx, env.proposal.ProposalID)
	if err != nil {
		t.Fatalf("重放定稿失败: %v", err)
	}
	if resp.FinalScore != 70.0 {
		t.Errorf("重放后得分期望 70.0，实际 %.2f", resp.FinalScore)
	}
	if len(env.f.awards) != 1 {
		t.Errorf("重放不应新增资助记录，实际 %d 条", len(env.f.awards))
	}
}

func TestFinalize_NoCompletedReviews(t *testing.T) {
	env := setupAward(nil, 0)
	_, err := env.svc.Finalize(context.Background(), env.proposal.ProposalID)
	if !errors.Is(err, ErrNoCompletedReviews) {
		t.Errorf("期望 ErrNoCompletedReviews，实际: %v", err)
	}
}

func TestDecide_Approve(t *testing.T) {
	env := setupAward([]int{80, 60}, 0)
	ctx := context.Background()
	if _, err := env.svc.Finalize(ctx, env.proposal.ProposalID); err != nil {
		t.Fatalf("定稿失败: %v", err)
	}

	resp, err := env.svc.Decide(ctx, env.proposal.ProposalID, "admin-001",
		&dto.DecideAwardRequest{Approve: true, Feedback: "Approved for funding."})
	if err != nil {
		t.Fatalf("决定失败: %v", err)
	}
	if resp.Status != model.AwardApproved {
		t.Errorf("状态期望 approved，实际 %s", resp.Status)
	}
	if resp.ApprovedBy == nil || *resp.ApprovedBy != "admin-001" {
		t.Error("应记录决定人")
	}
	if resp.ApprovedAt == nil {
		t.Error("应记录决定时间")
	}
	if resp.Feedback != "Approved for funding." {
		t.Errorf("反馈应被覆盖，实际 %q", resp.Feedback)
	}
	if env.proposal.Status != model.ProposalApproved {
		t.Errorf("申请书应同步为 approved，实际 %s", env.proposal.Status)
	}
}

func TestDecide_Decline(t *testing.T) {
	env := setupAward([]int{80, 60}, 0)
	ctx := context.Background()
	if _, err := env.svc.Finalize(ctx, env.proposal.ProposalID); err != nil {
		t.Fatalf("定稿失败: %v", err)
	}

	resp, err := env.svc.Decide(ctx, env.proposal.ProposalID, "admin-001",
		&dto.DecideAwardRequest{Approve: false})
	if err != nil {
		t.Fatalf("决定失败: %v", err)
	}
	if resp.Status != model.AwardDeclined {
		t.Errorf("状态期望 declined，实际 %s", resp.Status)
	}
	if env.proposal.Status != model.ProposalRejected {
		t.Errorf("申请书应同步为 rejected，实际 %s", env.proposal.Status)
	}
}

func TestDecide_RejectsRepeatDecision(t *testing.T) {
	env := setupAward([]int{80, 60}, 0)
	ctx := context.Background()
	if _, err := env.svc.Finalize(ctx, env.proposal.ProposalID); err != nil {
		t.Fatalf("定稿失败: %v", err)
	}
	if _, err := env.svc.Decide(ctx, env.proposal.ProposalID, "admin-001",
		&dto.DecideAwardRequest{Approve: true}); err != nil {
		t.Fatalf("首次决定失败: %v", err)
	}

	_, err := env.svc.Decide(ctx, env.proposal.ProposalID, "admin-001",
		&dto.DecideAwardRequest{Approve: false})
	var invalidState *InvalidStateError
	if !errors.As(err, &invalidState) {
		t.Errorf("重复决定应返回 InvalidStateError，实际: %v", err)
	}
}

func TestDecide_AwardNotFound(t *testing.T) {
	env := setupAward([]int{80, 60}, 0)
	_, err := env.svc.Decide(context.Background(), env.proposal.ProposalID, "admin-001",
		&dto.DecideAwardRequest{Approve: true})
	if !errors.Is(err, ErrAwardNotFound) {
		t.Errorf("未定稿即决定应返回 ErrAwardNotFound，实际: %v", err)
	}
}
