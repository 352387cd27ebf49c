package dto

import "time"

// ── 资助模块 DTO ──

// AwardResponse 资助记录信息
type AwardResponse struct {
	ID            string     `json:"id"`
	ProposalID    string     `json:"proposal_id"`
	FinalScore    float64    `json:"final_score"`
	Status        string     `json:"status"`
	FundingAmount float64    `json:"funding_amount"`
	Feedback      string     `json:"feedback"`
	ApprovedBy    *string    `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
}

// DecideAwardRequest 资助决定请求（管理员）
type DecideAwardRequest struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback"`
}
