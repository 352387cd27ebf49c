package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/config"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// UserService 用户管理业务接口
type UserService interface {
	// InviteReviewer 管理员邀请/直接添加评审员
	InviteReviewer(ctx context.Context, req *dto.InviteReviewerRequest) (*dto.UserResponse, error)
	// RegisterResearcher 申请人自助注册
	RegisterResearcher(ctx context.Context, req *dto.RegisterResearcherRequest) (*dto.UserResponse, error)
	// DeactivateUser 停用用户（停用后不再参与指派，不能登录）
	DeactivateUser(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type userService struct {
	repo     *repository.Repository
	cfg      *config.AuthConfig
	notifier Notifier
	logger   *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, cfg *config.AuthConfig, notifier Notifier, logger *zap.Logger) UserService {
	return &userService{repo: repo, cfg: cfg, notifier: notifier, logger: logger}
}

func (s *userService) InviteReviewer(ctx context.Context, req *dto.InviteReviewerRequest) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	faculty, err := s.repo.Faculty.GetByID(ctx, req.FacultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacultyNotFound
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         model.RoleReviewer,
		FacultyID:    &faculty.FacultyID,
		Faculty:      faculty,
		IsActive:     true,
	}
	if req.Direct {
		user.InvitationStatus = model.InvitationAdded
	} else {
		user.InvitationStatus = model.InvitationPending
		expiresAt := time.Now().Add(s.cfg.InvitationTTL)
		user.InvitationExpiresAt = &expiresAt
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建评审员失败", zap.Error(err))
		return nil, err
	}

	if !req.Direct {
		s.notifier.ReviewerInvited(ctx, user, user.InvitationExpiresAt)
	}

	s.logger.Info("评审员已添加",
		zap.String("user_id", user.UserID),
		zap.String("faculty", faculty.Title),
		zap.Bool("direct", req.Direct),
	)

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) RegisterResearcher(ctx context.Context, req *dto.RegisterResearcherRequest) (*dto.UserResponse, error) {
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	faculty, err := s.repo.Faculty.GetByID(ctx, req.FacultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacultyNotFound
		}
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:             req.Name,
		Email:            req.Email,
		PasswordHash:     string(hash),
		Role:             model.RoleResearcher,
		FacultyID:        &faculty.FacultyID,
		Faculty:          faculty,
		IsActive:         true,
		InvitationStatus: model.InvitationAdded,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建申请人失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("申请人已注册", zap.String("user_id", user.UserID))

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) DeactivateUser(ctx context.Context, userID string) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.IsActive {
		return nil
	}
	user.IsActive = false
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("停用用户失败", zap.Error(err))
		return err
	}
	s.logger.Info("用户已停用", zap.String("user_id", userID))
	return nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}
