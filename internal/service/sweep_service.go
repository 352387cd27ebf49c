package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/unibeninterns/server2-v2-sub000/config"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// SweepService 定时扫描业务接口：逾期标记、临期提醒、过期邀请清理
type SweepService interface {
	Run(ctx context.Context) (*dto.SweepResult, error)
}

type sweepService struct {
	repo     *repository.Repository
	cfg      *config.ReviewConfig
	notifier Notifier
	logger   *zap.Logger
}

// NewSweepService 创建 SweepService 实例
func NewSweepService(repo *repository.Repository, cfg *config.ReviewConfig, notifier Notifier, logger *zap.Logger) SweepService {
	return &sweepService{repo: repo, cfg: cfg, notifier: notifier, logger: logger}
}

// Run 由 cron 每日触发，也可经管理接口手动触发。
// 单条失败只记日志不中断，保证一次扫描覆盖尽可能多的记录
func (s *sweepService) Run(ctx context.Context) (*dto.SweepResult, error) {
	result := &dto.SweepResult{}
	now := time.Now()

	// 逾期标记
	overdue, err := s.repo.Review.ListInProgressDueBefore(ctx, now)
	if err != nil {
		s.logger.Error("查询逾期评审失败", zap.Error(err))
		return nil, err
	}
	for i := range overdue {
		rv := &overdue[i]
		marked, err := s.repo.Review.MarkOverdue(ctx, rv.ReviewID)
		if err != nil {
			s.logger.Error("标记逾期失败", zap.String("review_id", rv.ReviewID), zap.Error(err))
			continue
		}
		if !marked {
			continue
		}
		result.OverdueMarked++
		if rv.Reviewer != nil {
			s.notifier.OverdueNotice(ctx, rv.Reviewer, rv)
		}
	}

	// 临期提醒：截止日期落在未来 N 个工作日内
	reminderUntil := addBusinessDays(now, s.cfg.ReminderBusinessDays)
	upcoming, err := s.repo.Review.ListInProgressDueBetween(ctx, now, reminderUntil)
	if err != nil {
		s.logger.Error("查询临期评审失败", zap.Error(err))
		return nil, err
	}
	for i := range upcoming {
		rv := &upcoming[i]
		if rv.Reviewer == nil {
			continue
		}
		s.notifier.ReviewReminder(ctx, rv.Reviewer, rv)
		result.RemindersSent++
	}

	// 过期邀请清理
	expired, err := s.repo.User.ExpirePendingInvitations(ctx)
	if err != nil {
		s.logger.Error("清理过期邀请失败", zap.Error(err))
		return nil, err
	}
	result.InvitationsExpired = int(expired)

	s.logger.Info("定时扫描完成",
		zap.Int("overdue_marked", result.OverdueMarked),
		zap.Int("reminders_sent", result.RemindersSent),
		zap.Int("invitations_expired", result.InvitationsExpired),
	)
	return result, nil
}
