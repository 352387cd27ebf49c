package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unibeninterns/server2-v2-sub000/config"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/pkg/mailer"
)

// ReconciliationNotice 调解指派通知内容
type ReconciliationNotice struct {
	ReviewCount  int
	AverageScore float64 // 已四舍五入到一位小数
	Scores       []int
}

// Notifier 通知协作方接口
// 所有方法均为 best-effort：发送失败只记日志，绝不向调用方抛出，
// 不得阻断指派/评分主流程
type Notifier interface {
	ReviewAssigned(ctx context.Context, reviewer *model.User, proposal *model.Proposal, due time.Time)
	ReviewReminder(ctx context.Context, reviewer *model.User, review *model.Review)
	OverdueNotice(ctx context.Context, reviewer *model.User, review *model.Review)
	ReconciliationAssigned(ctx context.Context, reviewer *model.User, proposal *model.Proposal, due time.Time, notice ReconciliationNotice)
	ReviewerInvited(ctx context.Context, reviewer *model.User, expiresAt *time.Time)
}

// mailNotifier 基于 SMTP 的通知实现
type mailNotifier struct {
	mailer  mailer.Mailer
	cfg     *config.MailConfig
	baseURL string
	logger  *zap.Logger
}

// NewNotifier 创建通知服务
func NewNotifier(cfg *config.Config, m mailer.Mailer, logger *zap.Logger) Notifier {
	return &mailNotifier{
		mailer:  m,
		cfg:     &cfg.Mail,
		baseURL: cfg.Server.BaseURL,
		logger:  logger,
	}
}

// send 统一发送入口：超时控制 + 吞掉错误
func (n *mailNotifier) send(ctx context.Context, kind, to, subject, body string) {
	timeout := n.cfg.SendTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := n.mailer.Send(sendCtx, to, subject, body); err != nil {
		n.logger.Warn("通知邮件发送失败",
			zap.String("kind", kind),
			zap.String("to", to),
			zap.Error(err),
		)
		return
	}
	n.logger.Info("通知邮件已发送", zap.String("kind", kind), zap.String("to", to))
}

func (n *mailNotifier) ReviewAssigned(ctx context.Context, reviewer *model.User, proposal *model.Proposal, due time.Time) {
	if reviewer == nil || reviewer.Email == "" {
		return
	}
	subject := "New grant proposal assigned for review"
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>You have been assigned to review the grant proposal <strong>%s</strong>.</p>
<p>Please complete your review by <strong>%s</strong>.</p>
<p><a href="%s/reviews">Open your review dashboard</a></p>
<p>Directorate of Research, Innovation and Development</p>`,
		reviewer.Name, proposal.Title, due.Format("Monday, 2 January 2006"), n.baseURL,
	)
	n.send(ctx, "review-assignment", reviewer.Email, subject, body)
}

func (n *mailNotifier) ReviewReminder(ctx context.Context, reviewer *model.User, review *model.Review) {
	if reviewer == nil || reviewer.Email == "" {
		return
	}
	title := ""
	if review.Proposal != nil {
		title = review.Proposal.Title
	}
	subject := "Reminder: review deadline approaching"
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>Your review of <strong>%s</strong> is due on <strong>%s</strong>.</p>
<p>Please submit your scores before the deadline.</p>`,
		reviewer.Name, title, review.DueDate.Format("Monday, 2 January 2006"),
	)
	n.send(ctx, "review-reminder", reviewer.Email, subject, body)
}

func (n *mailNotifier) OverdueNotice(ctx context.Context, reviewer *model.User, review *model.Review) {
	if reviewer == nil || reviewer.Email == "" {
		return
	}
	title := ""
	if review.Proposal != nil {
		title = review.Proposal.Title
	}
	subject := "Overdue: review deadline passed"
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>Your review of <strong>%s</strong> was due on <strong>%s</strong> and is now overdue.</p>
<p>Please submit it as soon as possible, or contact the directorate if you are unable to complete it.</p>`,
		reviewer.Name, title, review.DueDate.Format("Monday, 2 January 2006"),
	)
	n.send(ctx, "overdue-notice", reviewer.Email, subject, body)
}

func (n *mailNotifier) ReconciliationAssigned(ctx context.Context, reviewer *model.User, proposal *model.Proposal, due time.Time, notice ReconciliationNotice) {
	if reviewer == nil || reviewer.Email == "" {
		return
	}
	subject := "Reconciliation review assigned"
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>The %d completed reviews of <strong>%s</strong> diverged significantly (average score %.1f, individual totals %v).</p>
<p>You have been assigned as the reconciliation reviewer. Please submit your independent assessment by <strong>%s</strong>.</p>`,
		reviewer.Name, notice.ReviewCount, proposal.Title, notice.AverageScore, notice.Scores,
		due.Format("Monday, 2 January 2006"),
	)
	n.send(ctx, "reconciliation-assignment", reviewer.Email, subject, body)
}

func (n *mailNotifier) ReviewerInvited(ctx context.Context, reviewer *model.User, expiresAt *time.Time) {
	if reviewer == nil || reviewer.Email == "" {
		return
	}
	subject := "Invitation to join the proposal review panel"
	deadline := ""
	if expiresAt != nil {
		deadline = fmt.Sprintf("<p>This invitation expires on <strong>%s</strong>.</p>",
			expiresAt.Format("Monday, 2 January 2006"))
	}
	body := fmt.Sprintf(
		`<p>Dear %s,</p>
<p>You have been invited to join the grant proposal review panel of the Directorate of Research, Innovation and Development.</p>
<p><a href="%s/login">Sign in</a> with your registered email to accept the invitation.</p>%s`,
		reviewer.Name, n.baseURL, deadline,
	)
	n.send(ctx, "reviewer-invitation", reviewer.Email, subject, body)
}
