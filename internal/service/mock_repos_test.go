package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/unibeninterns/server2-v2-sub000/internal/model"
	"github.com/unibeninterns/server2-v2-sub000/internal/repository"
)

// fixture 聚合全部内存 mock，模拟仓储层的关联预加载行为
type fixture struct {
	mu        sync.Mutex
	users     map[string]*model.User
	faculties map[string]*model.Faculty
	proposals map[string]*model.Proposal
	reviews   map[string]*model.Review
	reviewSeq []string // 保持创建顺序，对应 ListByProposal 的 created_at 排序
	awards    map[string]*model.Award
	seq       int
}

func newFixture() *fixture {
	return &fixture{
		users:     make(map[string]*model.User),
		faculties: make(map[string]*model.Faculty),
		proposals: make(map[string]*model.Proposal),
		reviews:   make(map[string]*model.Review),
		awards:    make(map[string]*model.Award),
	}
}

func (f *fixture) repo() *repository.Repository {
	return &repository.Repository{
		User:     &mockUserRepo{f: f},
		Faculty:  &mockFacultyRepo{f: f},
		Proposal: &mockProposalRepo{f: f},
		Review:   &mockReviewRepo{f: f},
		Award:    &mockAwardRepo{f: f},
	}
}

func (f *fixture) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%03d", prefix, f.seq)
}

// ── 种子数据 ──

func (f *fixture) addFaculty(title, code string) *model.Faculty {
	fac := &model.Faculty{FacultyID: "fac-" + code, Title: title, Code: code}
	f.faculties[fac.FacultyID] = fac
	return fac
}

func (f *fixture) addReviewer(name string, faculty *model.Faculty) *model.User {
	u := &model.User{
		UserID:           f.nextID("rev"),
		Name:             name,
		Email:            name + "@uniben.edu",
		Role:             model.RoleReviewer,
		FacultyID:        &faculty.FacultyID,
		Faculty:          faculty,
		IsActive:         true,
		InvitationStatus: model.InvitationAccepted,
	}
	f.users[u.UserID] = u
	return u
}

func (f *fixture) addResearcher(name string, faculty *model.Faculty) *model.User {
	u := &model.User{
		UserID:           f.nextID("res"),
		Name:             name,
		Email:            name + "@uniben.edu",
		Role:             model.RoleResearcher,
		FacultyID:        &faculty.FacultyID,
		Faculty:          faculty,
		IsActive:         true,
		InvitationStatus: model.InvitationAdded,
	}
	f.users[u.UserID] = u
	return u
}

func (f *fixture) addProposal(submitter *model.User, status string) *model.Proposal {
	p := &model.Proposal{
		ProposalID:      f.nextID("prop"),
		SubmitterID:     submitter.UserID,
		Title:           "Test proposal " + submitter.Name,
		Abstract:        "abstract",
		EstimatedBudget: 500000,
		Status:          status,
		ReviewStatus:    model.ReviewStatusPending,
		Submitter:       submitter,
	}
	f.proposals[p.ProposalID] = p
	return p
}

func (f *fixture) addReview(proposal *model.Proposal, reviewer *model.User, reviewType, status string) *model.Review {
	rv := &model.Review{
		ReviewID:   f.nextID("rvw"),
		ProposalID: proposal.ProposalID,
		ReviewType: reviewType,
		Status:     status,
		DueDate:    time.Now().AddDate(0, 0, 7),
	}
	if reviewer != nil {
		rv.ReviewerID = &reviewer.UserID
		rv.Reviewer = reviewer
	}
	f.reviews[rv.ReviewID] = rv
	f.reviewSeq = append(f.reviewSeq, rv.ReviewID)
	return rv
}

// completeReview 以给定总分完成评审（各项分数不参与断言时只填总分近似值）
func (f *fixture) completeReview(rv *model.Review, total int) {
	now := time.Now()
	rv.Status = model.ReviewCompleted
	rv.TotalScore = total
	rv.CompletedAt = &now
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	f *fixture
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = m.f.nextID("usr")
	}
	m.f.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.f.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) ListEligibleReviewers(_ context.Context, facultyIDs []string, excludeUserIDs []string) ([]model.User, error) {
	inFaculty := make(map[string]bool, len(facultyIDs))
	for _, id := range facultyIDs {
		inFaculty[id] = true
	}
	excluded := make(map[string]bool, len(excludeUserIDs))
	for _, id := range excludeUserIDs {
		excluded[id] = true
	}

	var out []model.User
	for _, u := range m.f.users {
		if !u.EligibleReviewer() || excluded[u.UserID] {
			continue
		}
		if u.FacultyID == nil || !inFaculty[*u.FacultyID] {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *mockUserRepo) ExpirePendingInvitations(_ context.Context) (int64, error) {
	var n int64
	now := time.Now()
	for _, u := range m.f.users {
		if u.InvitationStatus == model.InvitationPending &&
			u.InvitationExpiresAt != nil && u.InvitationExpiresAt.Before(now) {
			u.InvitationStatus = model.InvitationExpired
			n++
		}
	}
	return n, nil
}

// ── Mock FacultyRepository ──

type mockFacultyRepo struct {
	f *fixture
}

func (m *mockFacultyRepo) GetByID(_ context.Context, id string) (*model.Faculty, error) {
	if fac, ok := m.f.faculties[id]; ok {
		return fac, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacultyRepo) GetByTitle(_ context.Context, title string) (*model.Faculty, error) {
	for _, fac := range m.f.faculties {
		if fac.Title == title {
			return fac, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacultyRepo) ListByTitles(_ context.Context, titles []string) ([]model.Faculty, error) {
	wanted := make(map[string]bool, len(titles))
	for _, t := range titles {
		wanted[t] = true
	}
	var out []model.Faculty
	for _, fac := range m.f.faculties {
		if wanted[fac.Title] {
			out = append(out, *fac)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *mockFacultyRepo) List(_ context.Context) ([]model.Faculty, error) {
	var out []model.Faculty
	for _, fac := range m.f.faculties {
		out = append(out, *fac)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// ── Mock ProposalRepository ──

type mockProposalRepo struct {
	f *fixture
}

func (m *mockProposalRepo) Create(_ context.Context, proposal *model.Proposal) error {
	if proposal.ProposalID == "" {
		proposal.ProposalID = m.f.nextID("prop")
	}
	m.f.proposals[proposal.ProposalID] = proposal
	return nil
}

func (m *mockProposalRepo) GetByID(_ context.Context, id string) (*model.Proposal, error) {
	p, ok := m.f.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// 模拟 Submitter / Submitter.Faculty 预加载
	if p.Submitter == nil {
		p.Submitter = m.f.users[p.SubmitterID]
	}
	if p.Submitter != nil && p.Submitter.Faculty == nil && p.Submitter.FacultyID != nil {
		p.Submitter.Faculty = m.f.faculties[*p.Submitter.FacultyID]
	}
	return p, nil
}

func (m *mockProposalRepo) Update(_ context.Context, proposal *model.Proposal) error {
	m.f.proposals[proposal.ProposalID] = proposal
	return nil
}

func (m *mockProposalRepo) ListBySubmitter(_ context.Context, submitterID string) ([]model.Proposal, error) {
	var out []model.Proposal
	for _, p := range m.f.proposals {
		if p.SubmitterID == submitterID && !p.Archived {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProposalID < out[j].ProposalID })
	return out, nil
}

func (m *mockProposalRepo) TransitionReviewStatus(_ context.Context, proposalID, from, to string) (bool, error) {
	m.f.mu.Lock()
	defer m.f.mu.Unlock()
	p, ok := m.f.proposals[proposalID]
	if !ok || p.ReviewStatus != from {
		return false, nil
	}
	p.ReviewStatus = to
	return true, nil
}

// ── Mock ReviewRepository ──

type mockReviewRepo struct {
	f *fixture
}

func (m *mockReviewRepo) Create(_ context.Context, review *model.Review) error {
	if review.ReviewID == "" {
		review.ReviewID = m.f.nextID("rvw")
	}
	m.f.reviews[review.ReviewID] = review
	m.f.reviewSeq = append(m.f.reviewSeq, review.ReviewID)
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id string) (*model.Review, error) {
	rv, ok := m.f.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	m.hydrate(rv)
	return rv, nil
}

func (m *mockReviewRepo) Update(_ context.Context, review *model.Review) error {
	m.f.reviews[review.ReviewID] = review
	return nil
}

func (m *mockReviewRepo) ListByProposal(_ context.Context, proposalID string) ([]model.Review, error) {
	var out []model.Review
	for _, id := range m.f.reviewSeq {
		rv := m.f.reviews[id]
		if rv.ProposalID == proposalID {
			m.hydrate(rv)
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) ListByReviewer(_ context.Context, reviewerID string, statuses []string) ([]model.Review, error) {
	wanted := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	var out []model.Review
	for _, id := range m.f.reviewSeq {
		rv := m.f.reviews[id]
		if rv.ReviewerID == nil || *rv.ReviewerID != reviewerID {
			continue
		}
		if len(statuses) > 0 && !wanted[rv.Status] {
			continue
		}
		m.hydrate(rv)
		out = append(out, *rv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (m *mockReviewRepo) WorkloadByReviewers(_ context.Context, reviewerIDs []string) (map[string]repository.ReviewerWorkload, error) {
	result := make(map[string]repository.ReviewerWorkload, len(reviewerIDs))
	for _, id := range reviewerIDs {
		result[id] = repository.ReviewerWorkload{ReviewerID: id}
	}
	for _, rv := range m.f.reviews {
		if rv.ReviewerID == nil {
			continue
		}
		w, ok := result[*rv.ReviewerID]
		if !ok {
			continue
		}
		switch rv.Status {
		case model.ReviewInProgress, model.ReviewOverdue:
			w.Pending++
		case model.ReviewCompleted:
			w.Completed++
		}
		if rv.ReviewType == model.ReviewTypeReconciliation {
			w.Reconciliation++
		}
		result[*rv.ReviewerID] = w
	}
	return result, nil
}

func (m *mockReviewRepo) ListInProgressDueBefore(_ context.Context, t time.Time) ([]model.Review, error) {
	var out []model.Review
	for _, id := range m.f.reviewSeq {
		rv := m.f.reviews[id]
		if rv.Status == model.ReviewInProgress && rv.DueDate.Before(t) {
			m.hydrate(rv)
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) ListInProgressDueBetween(_ context.Context, from, to time.Time) ([]model.Review, error) {
	var out []model.Review
	for _, id := range m.f.reviewSeq {
		rv := m.f.reviews[id]
		if rv.Status == model.ReviewInProgress && !rv.DueDate.Before(from) && !rv.DueDate.After(to) {
			m.hydrate(rv)
			out = append(out, *rv)
		}
	}
	return out, nil
}

func (m *mockReviewRepo) MarkOverdue(_ context.Context, reviewID string) (bool, error) {
	rv, ok := m.f.reviews[reviewID]
	if !ok || rv.Status != model.ReviewInProgress {
		return false, nil
	}
	rv.Status = model.ReviewOverdue
	return true, nil
}

// hydrate 模拟 Reviewer / Proposal 关联预加载
func (m *mockReviewRepo) hydrate(rv *model.Review) {
	if rv.Reviewer == nil && rv.ReviewerID != nil {
		rv.Reviewer = m.f.users[*rv.ReviewerID]
	}
	if rv.Proposal == nil {
		rv.Proposal = m.f.proposals[rv.ProposalID]
	}
	if rv.Proposal != nil && rv.Proposal.Submitter == nil {
		rv.Proposal.Submitter = m.f.users[rv.Proposal.SubmitterID]
	}
}

// ── Mock AwardRepository ──

type mockAwardRepo struct {
	f *fixture
}

func (m *mockAwardRepo) GetByProposal(_ context.Context, proposalID string) (*model.Award, error) {
	for _, a := range m.f.awards {
		if a.ProposalID == proposalID {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAwardRepo) Upsert(_ context.Context, award *model.Award) error {
	for _, existing := range m.f.awards {
		if existing.ProposalID == award.ProposalID {
			existing.FinalScore = award.FinalScore
			existing.Feedback = award.Feedback
			*award = *existing
			return nil
		}
	}
	if award.AwardID == "" {
		award.AwardID = m.f.nextID("awd")
	}
	m.f.awards[award.AwardID] = award
	return nil
}

func (m *mockAwardRepo) Update(_ context.Context, award *model.Award) error {
	m.f.awards[award.AwardID] = award
	return nil
}

// ── Mock Notifier ──

type mockNotifier struct {
	mu             sync.Mutex
	assigned       []string // 每次指派通知的评审员 ID
	reminders      []string
	overdue        []string
	reconciliation []string
	notices        []ReconciliationNotice
	invited        []string
}

func newMockNotifier() *mockNotifier { return &mockNotifier{} }

func (n *mockNotifier) ReviewAssigned(_ context.Context, reviewer *model.User, _ *model.Proposal, _ time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.assigned = append(n.assigned, reviewer.UserID)
}

func (n *mockNotifier) ReviewReminder(_ context.Context, reviewer *model.User, _ *model.Review) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reminders = append(n.reminders, reviewer.UserID)
}

func (n *mockNotifier) OverdueNotice(_ context.Context, reviewer *model.User, _ *model.Review) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.overdue = append(n.overdue, reviewer.UserID)
}

func (n *mockNotifier) ReconciliationAssigned(_ context.Context, reviewer *model.User, _ *model.Proposal, _ time.Time, notice ReconciliationNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reconciliation = append(n.reconciliation, reviewer.UserID)
	n.notices = append(n.notices, notice)
}

func (n *mockNotifier) ReviewerInvited(_ context.Context, reviewer *model.User, _ *time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.invited = append(n.invited, reviewer.UserID)
}

// ── Stub ReviewService（指派测试用，记录 AI 派发请求） ──

type dispatchRecorder struct {
	ReviewService
	dispatched chan string
}

func newDispatchRecorder() *dispatchRecorder {
	return &dispatchRecorder{dispatched: make(chan string, 4)}
}

func (d *dispatchRecorder) CompleteAIReview(_ context.Context, reviewID string) error {
	d.dispatched <- reviewID
	return nil
}
