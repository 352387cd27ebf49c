package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// ExportService 评审结果导出业务接口
type ExportService interface {
	// ExportProposalReviews 导出申请书的评审明细 Excel，返回文件内容与建议文件名
	ExportProposalReviews(ctx context.Context, proposalID string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) ExportProposalReviews(ctx context.Context, proposalID string) ([]byte, string, error) {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrProposalNotFound
		}
		s.logger.Error("查询申请书失败", zap.Error(err))
		return nil, "", err
	}

	reviews, err := s.repo.Review.ListByProposal(ctx, proposalID)
	if err != nil {
		s.logger.Error("查询申请书评审列表失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reviews"
	f.SetSheetName("Sheet1", sheet)

	// 表头：固定列 + 十项评分 + 总分
	headers := []interface{}{"Reviewer", "Faculty", "Type", "Status", "Due Date", "Completed At"}
	for _, c := range model.CriterionOrder {
		headers = append(headers, fmt.Sprintf("%s (/%d)", c, model.CriterionMax[c]))
	}
	headers = append(headers, "Total (/100)")
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(headers))
		_ = f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)
	}

	for i := range reviews {
		rv := &reviews[i]
		reviewerName := "AI Baseline"
		faculty := "-"
		if rv.Reviewer != nil {
			reviewerName = rv.Reviewer.Name
			if rv.Reviewer.Faculty != nil {
				faculty = rv.Reviewer.Faculty.Title
			}
		}
		completedAt := ""
		if rv.CompletedAt != nil {
			completedAt = rv.CompletedAt.Format("2006-01-02 15:04")
		}

		row := []interface{}{
			reviewerName, faculty, rv.ReviewType, rv.Status,
			rv.DueDate.Format("2006-01-02"), completedAt,
		}
		for _, c := range model.CriterionOrder {
			if rv.Status == model.ReviewCompleted {
				row = append(row, rv.Scores.Get(c))
			} else {
				row = append(row, "")
			}
		}
		if rv.Status == model.ReviewCompleted {
			row = append(row, rv.TotalScore)
		} else {
			row = append(row, "")
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	// 概要页
	const summary = "Summary"
	if _, err := f.NewSheet(summary); err == nil {
		rows := [][]interface{}{
			{"Proposal", proposal.Title},
			{"Proposal ID", proposal.ProposalID},
			{"Status", proposal.Status},
			{"Review Status", proposal.ReviewStatus},
			{"Estimated Budget", proposal.EstimatedBudget},
			{"Exported At", time.Now().Format("2006-01-02 15:04")},
		}
		if award, aerr := s.repo.Award.GetByProposal(ctx, proposalID); aerr == nil {
			rows = append(rows,
				[]interface{}{"Final Score", award.FinalScore},
				[]interface{}{"Award Status", award.Status},
			)
		}
		for i, r := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			_ = f.SetSheetRow(summary, cell, &r)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("生成导出文件失败", zap.Error(err))
		return nil, "", err
	}

	shortID := proposal.ProposalID
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}
	filename := fmt.Sprintf("proposal_reviews_%s_%s.xlsx",
		shortID, time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}
