package service

import (
	"errors"
	"fmt"
	"strings"
)

// ── 评审流程业务错误 ──

var (
	ErrProposalNotFound   = errors.New("申请书不存在")
	ErrReviewNotFound     = errors.New("评审记录不存在")
	ErrReviewerNotFound   = errors.New("评审员不存在")
	ErrAwardNotFound      = errors.New("资助记录不存在")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrFacultyNotFound    = errors.New("学院不存在")
	ErrNotReviewOwner     = errors.New("该评审记录不属于当前评审员")
	ErrNoCompletedReviews = errors.New("该申请书暂无已完成的评审")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrEmailTaken         = errors.New("该邮箱已被注册")
	ErrReviewerIneligible = errors.New("指定评审员不符合指派条件")
)

// NoEligibleFacultyError 申请人学院无法解析或集群为空，指派无法进行
type NoEligibleFacultyError struct {
	Faculty string // 尝试解析的学院名
	Reason  string
}

func (e *NoEligibleFacultyError) Error() string {
	return fmt.Sprintf("学院 %q 无可用的同行评审学院: %s", e.Faculty, e.Reason)
}

// InsufficientReviewersError 同行学院中无符合条件的评审员
// Faculties 为尝试过的学院列表，供运营人员定向补充评审员
type InsufficientReviewersError struct {
	Faculties []string
}

func (e *InsufficientReviewersError) Error() string {
	return fmt.Sprintf("以下学院中无符合条件的评审员: %s", strings.Join(e.Faculties, "、"))
}

// NoReconciliationReviewerError 无可用的调解评审员
type NoReconciliationReviewerError struct {
	Faculties []string
}

func (e *NoReconciliationReviewerError) Error() string {
	return fmt.Sprintf("以下学院中无可指派的调解评审员: %s", strings.Join(e.Faculties, "、"))
}

// AlreadyCompletedError 试图修改已完成的评审（completed 为终态）
type AlreadyCompletedError struct {
	ReviewID string
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("评审 %s 已完成，不可再修改", e.ReviewID)
}

// InvalidStateError 操作在当前状态下不允许执行
type InvalidStateError struct {
	Op    string
	State string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("操作 %s 在当前状态 %q 下不允许执行", e.Op, e.State)
}

// ValidationError 请求载荷非法（评分越界等）
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "参数校验失败: " + e.Detail
}
