package service

import (
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// ── 模型 → DTO 转换 ──

func toFacultyResponse(f *model.Faculty) *dto.FacultyResponse {
	if f == nil {
		return nil
	}
	return &dto.FacultyResponse{
		ID:    f.FacultyID,
		Title: f.Title,
		Code:  f.Code,
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:               u.UserID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		IsActive:         u.IsActive,
		InvitationStatus: u.InvitationStatus,
		Faculty:          toFacultyResponse(u.Faculty),
	}
}

func toProposalResponse(p *model.Proposal) dto.ProposalResponse {
	resp := dto.ProposalResponse{
		ID:              p.ProposalID,
		Title:           p.Title,
		Abstract:        p.Abstract,
		EstimatedBudget: p.EstimatedBudget,
		Status:          p.Status,
		ReviewStatus:    p.ReviewStatus,
		Archived:        p.Archived,
	}
	if p.Submitter != nil {
		u := toUserResponse(p.Submitter)
		resp.Submitter = &u
	}
	return resp
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	resp := dto.ReviewResponse{
		ID:          r.ReviewID,
		ProposalID:  r.ProposalID,
		ReviewType:  r.ReviewType,
		Status:      r.Status,
		Scores:      r.Scores,
		Comments:    r.Comments,
		TotalScore:  r.TotalScore,
		DueDate:     r.DueDate,
		CompletedAt: r.CompletedAt,
	}
	if r.Reviewer != nil {
		u := toUserResponse(r.Reviewer)
		resp.Reviewer = &u
	}
	return resp
}

func toAwardResponse(a *model.Award) dto.AwardResponse {
	return dto.AwardResponse{
		ID:            a.AwardID,
		ProposalID:    a.ProposalID,
		FinalScore:    a.FinalScore,
		Status:        a.Status,
		FundingAmount: a.FundingAmount,
		Feedback:      a.Feedback,
		ApprovedBy:    a.ApprovedBy,
		ApprovedAt:    a.ApprovedAt,
	}
}
