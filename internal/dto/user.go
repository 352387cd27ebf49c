package dto

// ── 用户模块 DTO ──

// FacultyResponse 学院信息
type FacultyResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Code  string `json:"code"`
}

// UserResponse 用户信息
type UserResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Role             string           `json:"role"`
	IsActive         bool             `json:"is_active"`
	InvitationStatus string           `json:"invitation_status,omitempty"`
	Faculty          *FacultyResponse `json:"faculty,omitempty"`
}

// InviteReviewerRequest 邀请评审员请求（管理员）
// Direct 为 true 时直接添加（状态 added），否则发出邀请（状态 pending，带有效期）
type InviteReviewerRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	Email     string `json:"email"      binding:"required,email"`
	Password  string `json:"password"   binding:"required,min=8,max=64"`
	FacultyID string `json:"faculty_id" binding:"required,uuid"`
	Direct    bool   `json:"direct"`
}

// RegisterResearcherRequest 注册申请人请求
type RegisterResearcherRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=100"`
	Email     string `json:"email"      binding:"required,email"`
	Password  string `json:"password"   binding:"required,min=8,max=64"`
	FacultyID string `json:"faculty_id" binding:"required,uuid"`
}

// [自证通过] internal/dto/user.go
