package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/internal/cluster"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// FacultyService 学院查询业务接口
type FacultyService interface {
	List(ctx context.Context) ([]dto.FacultyResponse, error)
	Get(ctx context.Context, facultyID string) (*dto.FacultyResponse, error)
	// Peers 返回某学院的同行评审学院（同集群、不含自身）
	Peers(ctx context.Context, facultyID string) ([]dto.FacultyResponse, error)
}

type facultyService struct {
	repo *repository.Repository
}

// NewFacultyService 创建 FacultyService 实例
func NewFacultyService(repo *repository.Repository) FacultyService {
	return &facultyService{repo: repo}
}

func (s *facultyService) List(ctx context.Context) ([]dto.FacultyResponse, error) {
	faculties, err := s.repo.Faculty.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FacultyResponse, 0, len(faculties))
	for i := range faculties {
		out = append(out, *toFacultyResponse(&faculties[i]))
	}
	return out, nil
}

func (s *facultyService) Get(ctx context.Context, facultyID string) (*dto.FacultyResponse, error) {
	faculty, err := s.repo.Faculty.GetByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacultyNotFound
		}
		return nil, err
	}
	return toFacultyResponse(faculty), nil
}

func (s *facultyService) Peers(ctx context.Context, facultyID string) ([]dto.FacultyResponse, error) {
	faculty, err := s.repo.Faculty.GetByID(ctx, facultyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFacultyNotFound
		}
		return nil, err
	}

	titles, err := cluster.PeerFaculties(faculty.Title)
	if err != nil {
		return nil, &NoEligibleFacultyError{Faculty: faculty.Title, Reason: err.Error()}
	}

	peers, err := s.repo.Faculty.ListByTitles(ctx, titles)
	if err != nil {
		return nil, err
	}
	out := make([]dto.FacultyResponse, 0, len(peers))
	for i := range peers {
		out = append(out, *toFacultyResponse(&peers[i]))
	}
	return out, nil
}
