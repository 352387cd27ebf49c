package dto

import (
	"time"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// ── 评审模块 DTO ──

// ScoresPayload 十项评分（各项上限与评分标准一致）
type ScoresPayload struct {
	Relevance                    int `json:"relevance"                    binding:"min=0,max=10"`
	Originality                  int `json:"originality"                  binding:"min=0,max=15"`
	Clarity                      int `json:"clarity"                      binding:"min=0,max=10"`
	Methodology                  int `json:"methodology"                  binding:"min=0,max=15"`
	LiteratureReview             int `json:"literature_review"            binding:"min=0,max=10"`
	TeamComposition              int `json:"team_composition"             binding:"min=0,max=10"`
	FeasibilityAndTimeline       int `json:"feasibility_and_timeline"     binding:"min=0,max=10"`
	BudgetJustification          int `json:"budget_justification"         binding:"min=0,max=10"`
	ExpectedOutcomes             int `json:"expected_outcomes"            binding:"min=0,max=5"`
	SustainabilityAndScalability int `json:"sustainability_and_scalability" binding:"min=0,max=5"`
}

// ToScoreSet 转换为模型评分集合
func (p ScoresPayload) ToScoreSet() model.ScoreSet {
	return model.ScoreSet{
		Relevance:                    p.Relevance,
		Originality:                  p.Originality,
		Clarity:                      p.Clarity,
		Methodology:                  p.Methodology,
		LiteratureReview:             p.LiteratureReview,
		TeamComposition:              p.TeamComposition,
		FeasibilityAndTimeline:       p.FeasibilityAndTimeline,
		BudgetJustification:          p.BudgetJustification,
		ExpectedOutcomes:             p.ExpectedOutcomes,
		SustainabilityAndScalability: p.SustainabilityAndScalability,
	}
}

// CommentsPayload 评语
type CommentsPayload struct {
	Criteria   map[string]string `json:"criteria"`
	Strengths  string            `json:"strengths"`
	Weaknesses string            `json:"weaknesses"`
	Overall    string            `json:"overall"`
}

// ToCommentSet 转换为模型评语集合
func (p CommentsPayload) ToCommentSet() model.CommentSet {
	return model.CommentSet{
		Criteria:   p.Criteria,
		Strengths:  p.Strengths,
		Weaknesses: p.Weaknesses,
		Overall:    p.Overall,
	}
}

// SubmitReviewRequest 提交评审请求
type SubmitReviewRequest struct {
	Scores   ScoresPayload   `json:"scores"   binding:"required"`
	Comments CommentsPayload `json:"comments"`
}

// ReviewResponse 评审记录信息
type ReviewResponse struct {
	ID          string           `json:"id"`
	ProposalID  string           `json:"proposal_id"`
	ReviewType  string           `json:"review_type"`
	Status      string           `json:"status"`
	Scores      model.ScoreSet   `json:"scores"`
	Comments    model.CommentSet `json:"comments"`
	TotalScore  int              `json:"total_score"`
	DueDate     time.Time        `json:"due_date"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Reviewer    *UserResponse    `json:"reviewer,omitempty"`
}

// CriterionSpread 单项评分分歧统计
type CriterionSpread struct {
	Criterion     string  `json:"criterion"`
	Min           int     `json:"min"`
	Max           int     `json:"max"`
	Avg           float64 `json:"avg"`
	SpreadPercent float64 `json:"spread_percent"` // (max-min)/满分 × 100
}

// DiscrepancyAnalysis 分歧分析（每次完成提交均返回，按 spread_percent 降序）
type DiscrepancyAnalysis struct {
	ReviewCount int               `json:"review_count"`
	Criteria    []CriterionSpread `json:"criteria"`
}

// SubmitReviewResponse 提交评审响应
type SubmitReviewResponse struct {
	Review       ReviewResponse       `json:"review"`
	AllCompleted bool                 `json:"all_completed"`
	Analysis     *DiscrepancyAnalysis `json:"analysis,omitempty"`
}

// AssignmentResponse 指派评审员响应
type AssignmentResponse struct {
	Reviewers  []UserResponse `json:"reviewers"`
	AIReviewID string         `json:"ai_review_id"`
	DueDate    time.Time      `json:"due_date"`
}

// CheckDiscrepancyResponse 分歧检测响应
type CheckDiscrepancyResponse struct {
	HasDiscrepancy         bool          `json:"has_discrepancy"`
	Scores                 []int         `json:"scores"`
	AverageScore           float64       `json:"average_score"`
	DiscrepancyThreshold   float64       `json:"discrepancy_threshold"`
	ReconciliationReviewer *UserResponse `json:"reconciliation_reviewer,omitempty"`
	DueDate                *time.Time    `json:"due_date,omitempty"`
}

// ReassignReviewRequest 改派常规评审请求
// NewReviewerID 为空时由系统自动选择
type ReassignReviewRequest struct {
	NewReviewerID string `json:"new_reviewer_id"`
}

// SweepResult 逾期/临期扫描结果
type SweepResult struct {
	OverdueMarked      int `json:"overdue_marked"`
	RemindersSent      int `json:"reminders_sent"`
	InvitationsExpired int `json:"invitations_expired"`
}
