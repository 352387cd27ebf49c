package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/unibeninterns/server2-v2-sub000/internal/cluster"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

func TestSweep_MarksOverdueAndNotifies(t *testing.T) {
	f := newFixture()
	law := f.addFaculty(cluster.Law, "LAW")
	social := f.addFaculty(cluster.SocialSciences, "SSC")
	r1 := f.addReviewer("ada", social)
	researcher := f.addResearcher("dike", law)
	proposal := f.addProposal(researcher, model.ProposalUnderReview)

	late := f.addReview(proposal, r1, model.ReviewTypeHuman, model.ReviewInProgress)
	late.DueDate = time.Now().AddDate(0, 0, -3)

	notifier := newMockNotifier()
	svc := NewSweepService(f.repo(), testReviewConfig(), notifier, zap.NewNop())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("扫描失败: %v", err)
	}
	if result.OverdueMarked != 1 {
		t.Errorf("应标记 1 条逾期，实际 %d", result.OverdueMarked)
	}
	if f.reviews[late.ReviewID].Status != model.ReviewOverdue {
		t.Errorf("评审状态应为 overdue，实际 %s", f.reviews[late.ReviewID].Status)
	}
	if len(notifier.overdue) != 1 || notifier.overdue[0] != r1.UserID {
		t.Errorf("应通知逾期评审员 %s，实际 %v", r1.UserID, notifier.overdue)
	}
}

func TestSweep_SkipsOverdueNoticeForAIReview(t *testing.T) {
	f := newFixture()
	law := f.addFaculty(cluster.Law, "LAW")
	researcher := f.addResearcher("dike", law)
	proposal := f.addProposal(researcher, model.ProposalUnderReview)

	// AI 评审无评审员，逾期只标记不通知
	late := f.addReview(proposal, nil, model.ReviewTypeAI, model.ReviewInProgress)
	late.DueDate = time.Now().AddDate(0, 0, -1)

	notifier := newMockNotifier()
	svc := NewSweepService(f.repo(), testReviewConfig(), notifier, zap.NewNop())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("扫描失败: %v", err)
	}
	if result.OverdueMarked != 1 {
		t.Errorf("应标记 1 条逾期，实际 %d", result.OverdueMarked)
	}
	if len(notifier.overdue) != 0 {
		t.Errorf("无评审员不应发送逾期通知，实际 %v", notifier.overdue)
	}
}

func TestSweep_SendsUpcomingReminders(t *testing.T) {
	f := newFixture()
	law := f.addFaculty(cluster.Law, "LAW")
	social := f.addFaculty(cluster.SocialSciences, "SSC")
	r1 := f.addReviewer("ada", social)
	r2 := f.addReviewer("bola", social)
	researcher := f.addResearcher("dike", law)
	proposal := f.addProposal(researcher, model.ProposalUnderReview)

	// 明日截止：落在 2 个工作日的提醒窗口内
	soon := f.addReview(proposal, r1, model.ReviewTypeHuman, model.ReviewInProgress)
	soon.DueDate = time.Now().AddDate(0, 0, 1)
	// 三周后截止：窗口之外
	far := f.addReview(proposal, r2, model.ReviewTypeHuman, model.ReviewInProgress)
	far.DueDate = time.Now().AddDate(0, 0, 21)

	notifier := newMockNotifier()
	svc := NewSweepService(f.repo(), testReviewConfig(), notifier, zap.NewNop())

	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("扫描失败: %v", err)
	}
	if result.RemindersSent != 1 {
		t.Errorf("应发送 1 条提醒，实际 %d", result.RemindersSent)
	}
	if len(notifier.reminders) != 1 || notifier.reminders[0] != r1.UserID {
		t.Errorf("应提醒 %s，实际 %v", r1.UserID, notifier.reminders)
	}
	if result.OverdueMarked != 0 {
		t.Errorf("无逾期评审，实际标记 %d", result.OverdueMarked)
	}
}

func TestSweep_ExpiresPendingInvitations(t *testing.T) {
	f := newFixture()
	social := f.addFaculty(cluster.SocialSciences, "SSC")

	expired := f.addReviewer("ada", social)
	expired.InvitationStatus = model.InvitationPending
	past := time.Now().AddDate(0, 0, -1)
	expired.InvitationExpiresAt = &past

	pending := f.addReviewer("bola", social)
	pending.InvitationStatus = model.InvitationPending
	future := time.Now().AddDate(0, 0, 3)
	pending.InvitationExpiresAt = &future

	svc := NewSweepService(f.repo(), testReviewConfig(), newMockNotifier(), zap.NewNop())
	result, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("扫描失败: %v", err)
	}
	if result.InvitationsExpired != 1 {
		t.Errorf("应清理 1 条过期邀请，实际 %d", result.InvitationsExpired)
	}
	if expired.InvitationStatus != model.InvitationExpired {
		t.Errorf("过期邀请状态应为 expired，实际 %s", expired.InvitationStatus)
	}
	if pending.InvitationStatus != model.InvitationPending {
		t.Errorf("未过期邀请不应被改动，实际 %s", pending.InvitationStatus)
	}
}
