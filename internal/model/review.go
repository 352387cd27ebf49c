package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 评审类型
const (
	ReviewTypeAI             = "ai"
	ReviewTypeHuman          = "human"
	ReviewTypeReconciliation = "reconciliation"
)

// 评审状态（completed 为终态，不可回退）
const (
	ReviewInProgress = "in_progress"
	ReviewCompleted  = "completed"
	ReviewOverdue    = "overdue"
)

// ── 十项评分标准 ──

// Criterion 评分标准名称
type Criterion string

const (
	CriterionRelevance                    Criterion = "relevance"
	CriterionOriginality                  Criterion = "originality"
	CriterionClarity                      Criterion = "clarity"
	CriterionMethodology                  Criterion = "methodology"
	CriterionLiteratureReview             Criterion = "literatureReview"
	CriterionTeamComposition              Criterion = "teamComposition"
	CriterionFeasibilityAndTimeline       Criterion = "feasibilityAndTimeline"
	CriterionBudgetJustification          Criterion = "budgetJustification"
	CriterionExpectedOutcomes             Criterion = "expectedOutcomes"
	CriterionSustainabilityAndScalability Criterion = "sustainabilityAndScalability"
)

// CriterionOrder 评分标准的固定呈现顺序
var CriterionOrder = []Criterion{
	CriterionRelevance,
	CriterionOriginality,
	CriterionClarity,
	CriterionMethodology,
	CriterionLiteratureReview,
	CriterionTeamComposition,
	CriterionFeasibilityAndTimeline,
	CriterionBudgetJustification,
	CriterionExpectedOutcomes,
	CriterionSustainabilityAndScalability,
}

// CriterionMax 各标准满分（总分 100）
var CriterionMax = map[Criterion]int{
	CriterionRelevance:                    10,
	CriterionOriginality:                  15,
	CriterionClarity:                      10,
	CriterionMethodology:                  15,
	CriterionLiteratureReview:             10,
	CriterionTeamComposition:              10,
	CriterionFeasibilityAndTimeline:       10,
	CriterionBudgetJustification:          10,
	CriterionExpectedOutcomes:             5,
	CriterionSustainabilityAndScalability: 5,
}

// ScoreSet 十项评分，存储为 JSONB
type ScoreSet struct {
	Relevance                    int `json:"relevance"`
	Originality                  int `json:"originality"`
	Clarity                      int `json:"clarity"`
	Methodology                  int `json:"methodology"`
	LiteratureReview             int `json:"literatureReview"`
	TeamComposition              int `json:"teamComposition"`
	FeasibilityAndTimeline       int `json:"feasibilityAndTimeline"`
	BudgetJustification          int `json:"budgetJustification"`
	ExpectedOutcomes             int `json:"expectedOutcomes"`
	SustainabilityAndScalability int `json:"sustainabilityAndScalability"`
}

// Get 按标准名取分
func (s ScoreSet) Get(c Criterion) int {
	switch c {
	case CriterionRelevance:
		return s.Relevance
	case CriterionOriginality:
		return s.Originality
	case CriterionClarity:
		return s.Clarity
	case CriterionMethodology:
		return s.Methodology
	case CriterionLiteratureReview:
		return s.LiteratureReview
	case CriterionTeamComposition:
		return s.TeamComposition
	case CriterionFeasibilityAndTimeline:
		return s.FeasibilityAndTimeline
	case CriterionBudgetJustification:
		return s.BudgetJustification
	case CriterionExpectedOutcomes:
		return s.ExpectedOutcomes
	case CriterionSustainabilityAndScalability:
		return s.SustainabilityAndScalability
	}
	return 0
}

// Set 按标准名赋分
func (s *ScoreSet) Set(c Criterion, v int) {
	switch c {
	case CriterionRelevance:
		s.Relevance = v
	case CriterionOriginality:
		s.Originality = v
	case CriterionClarity:
		s.Clarity = v
	case CriterionMethodology:
		s.Methodology = v
	case CriterionLiteratureReview:
		s.LiteratureReview = v
	case CriterionTeamComposition:
		s.TeamComposition = v
	case CriterionFeasibilityAndTimeline:
		s.FeasibilityAndTimeline = v
	case CriterionBudgetJustification:
		s.BudgetJustification = v
	case CriterionExpectedOutcomes:
		s.ExpectedOutcomes = v
	case CriterionSustainabilityAndScalability:
		s.SustainabilityAndScalability = v
	}
}

// Total 十项之和（总分不变式：totalScore 恒等于该和）
func (s ScoreSet) Total() int {
	total := 0
	for _, c := range CriterionOrder {
		total += s.Get(c)
	}
	return total
}

// Validate 校验各项分数在 [0, 满分] 范围内
func (s ScoreSet) Validate() error {
	for _, c := range CriterionOrder {
		v := s.Get(c)
		if v < 0 || v > CriterionMax[c] {
			return fmt.Errorf("评分项 %s 超出范围 [0, %d]: %d", c, CriterionMax[c], v)
		}
	}
	return nil
}

// Scan 实现 GORM Scanner：JSONB → ScoreSet
func (s *ScoreSet) Scan(src interface{}) error {
	if src == nil {
		*s = ScoreSet{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("ScoreSet.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, s)
}

// Value 实现 GORM Valuer：ScoreSet → JSONB
func (s ScoreSet) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// CommentSet 评语集合：逐项评语 + 优点/不足/总评，存储为 JSONB
type CommentSet struct {
	Criteria   map[string]string `json:"criteria,omitempty"`
	Strengths  string            `json:"strengths,omitempty"`
	Weaknesses string            `json:"weaknesses,omitempty"`
	Overall    string            `json:"overall,omitempty"`
}

// Scan 实现 GORM Scanner
func (c *CommentSet) Scan(src interface{}) error {
	if src == nil {
		*c = CommentSet{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("CommentSet.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, c)
}

// Value 实现 GORM Valuer
func (c CommentSet) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Review 评审记录 — 对应 reviews
// ReviewerID 为 NULL 表示 AI 评审
type Review struct {
	ReviewID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_id"`
	ProposalID  string     `gorm:"type:uuid;not null;index"                       json:"proposal_id"`
	ReviewerID  *string    `gorm:"type:uuid;index"                                json:"reviewer_id,omitempty"`
	ReviewType  string     `gorm:"type:varchar(20);not null"                      json:"review_type"`
	Status      string     `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	Scores      ScoreSet   `gorm:"type:jsonb"                                     json:"scores"`
	Comments    CommentSet `gorm:"type:jsonb"                                     json:"comments"`
	TotalScore  int        `gorm:"not null;default:0"                             json:"total_score"`
	DueDate     time.Time  `gorm:"not null"                                       json:"due_date"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	BaseModel

	// 关联
	Proposal *Proposal `gorm:"foreignKey:ProposalID;references:ProposalID" json:"proposal,omitempty"`
	Reviewer *User     `gorm:"foreignKey:ReviewerID;references:UserID"     json:"reviewer,omitempty"`
}

// TableName 指定表名
func (Review) TableName() string { return "reviews" }

// IsReconciliation 是否为调解评审
func (r *Review) IsReconciliation() bool { return r.ReviewType == ReviewTypeReconciliation }

// [自证通过] internal/model/review.go
