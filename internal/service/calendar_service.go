package service

import (
	"context"
	"fmt"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// CalendarService 评审日程订阅业务接口
type CalendarService interface {
	// ReviewerCalendar 生成评审员待办评审截止日期的 ICS 日历
	ReviewerCalendar(ctx context.Context, reviewerID string) (string, error)
}

type calendarService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(repo *repository.Repository, logger *zap.Logger) CalendarService {
	return &calendarService{repo: repo, logger: logger}
}

func (s *calendarService) ReviewerCalendar(ctx context.Context, reviewerID string) (string, error) {
	reviews, err := s.repo.Review.ListByReviewer(ctx, reviewerID,
		[]string{model.ReviewInProgress, model.ReviewOverdue})
	if err != nil {
		s.logger.Error("查询评审任务失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//DRID//Proposal Review//EN")
	cal.SetName("DRID Review Deadlines")

	for i := range reviews {
		rv := &reviews[i]
		title := "Proposal review"
		if rv.Proposal != nil {
			title = rv.Proposal.Title
		}

		event := cal.AddEvent(fmt.Sprintf("review-%s@drid.uniben.edu", rv.ReviewID))
		event.SetSummary(fmt.Sprintf("Review due: %s", title))
		event.SetAllDayStartAt(rv.DueDate)
		event.SetAllDayEndAt(rv.DueDate.AddDate(0, 0, 1))
		event.SetDtStampTime(rv.CreatedAt)
		if rv.ReviewType == model.ReviewTypeReconciliation {
			event.SetDescription("Reconciliation review: the initial review scores diverged significantly.")
		} else {
			event.SetDescription("Regular proposal review.")
		}
	}

	return cal.Serialize(), nil
}
