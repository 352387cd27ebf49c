package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// ProposalService 申请书业务接口
type ProposalService interface {
	// Submit 申请人提交申请书（初始状态 submitted，等待管理员触发指派）
	Submit(ctx context.Context, submitterID string, req *dto.SubmitProposalRequest) (*dto.ProposalResponse, error)
	Get(ctx context.Context, proposalID string) (*dto.ProposalResponse, error)
	ListMine(ctx context.Context, submitterID string) ([]dto.ProposalResponse, error)
	// Archive 归档申请书（归档后不在申请人列表中展示）
	Archive(ctx context.Context, proposalID string) error
}

type proposalService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProposalService 创建 ProposalService 实例
func NewProposalService(repo *repository.Repository, logger *zap.Logger) ProposalService {
	return &proposalService{repo: repo, logger: logger}
}

func (s *proposalService) Submit(ctx context.Context, submitterID string, req *dto.SubmitProposalRequest) (*dto.ProposalResponse, error) {
	submitter, err := s.repo.User.GetByID(ctx, submitterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	// 申请人必须关联学院，否则后续无法解析同行评审学院
	if submitter.FacultyID == nil {
		return nil, &ValidationError{Detail: "申请人未关联学院，无法提交申请书"}
	}

	proposal := &model.Proposal{
		SubmitterID:     submitterID,
		Title:           req.Title,
		Abstract:        req.Abstract,
		EstimatedBudget: req.EstimatedBudget,
		Status:          model.ProposalSubmitted,
		ReviewStatus:    model.ReviewStatusPending,
		Submitter:       submitter,
	}
	if err := s.repo.Proposal.Create(ctx, proposal); err != nil {
		s.logger.Error("创建申请书失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("申请书已提交",
		zap.String("proposal_id", proposal.ProposalID),
		zap.String("submitter_id", submitterID),
	)

	resp := toProposalResponse(proposal)
	return &resp, nil
}

func (s *proposalService) Get(ctx context.Context, proposalID string) (*dto.ProposalResponse, error) {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}
	resp := toProposalResponse(proposal)
	return &resp, nil
}

func (s *proposalService) ListMine(ctx context.Context, submitterID string) ([]dto.ProposalResponse, error) {
	proposals, err := s.repo.Proposal.ListBySubmitter(ctx, submitterID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProposalResponse, 0, len(proposals))
	for i := range proposals {
		out = append(out, toProposalResponse(&proposals[i]))
	}
	return out, nil
}

func (s *proposalService) Archive(ctx context.Context, proposalID string) error {
	proposal, err := s.repo.Proposal.GetByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProposalNotFound
		}
		return err
	}
	if proposal.Archived {
		return nil
	}
	proposal.Archived = true
	if err := s.repo.Proposal.Update(ctx, proposal); err != nil {
		s.logger.Error("归档申请书失败", zap.Error(err))
		return err
	}
	s.logger.Info("申请书已归档", zap.String("proposal_id", proposalID))
	return nil
}
