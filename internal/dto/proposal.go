package dto

// ── 申请书模块 DTO ──

// SubmitProposalRequest 提交申请书请求
type SubmitProposalRequest struct {
	Title           string  `json:"title"            binding:"required,min=5,max=300"`
	Abstract        string  `json:"abstract"         binding:"required"`
	EstimatedBudget float64 `json:"estimated_budget" binding:"required,gt=0"`
}

// ProposalResponse 申请书信息
type ProposalResponse struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Abstract        string        `json:"abstract,omitempty"`
	EstimatedBudget float64       `json:"estimated_budget"`
	Status          string        `json:"status"`
	ReviewStatus    string        `json:"review_status"`
	Archived        bool          `json:"archived"`
	Submitter       *UserResponse `json:"submitter,omitempty"`
}
