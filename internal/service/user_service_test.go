package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/unibeninterns/server2-v2-sub000/internal/cluster"
	"github.com/unibeninterns/server2-v2-sub000/internal/dto"
	"github.com/unibeninterns/server2-v2-sub000/internal/model"
)

func setupUserService(t *testing.T) (*fixture, UserService, *mockNotifier) {
	t.Helper()
	f := newFixture()
	f.addFaculty(cluster.SocialSciences, "SSC")
	notifier := newMockNotifier()
	svc := NewUserService(f.repo(), testAuthConfig(), notifier, zap.NewNop())
	return f, svc, notifier
}

func TestInviteReviewer_PendingWithExpiry(t *testing.T) {
	f, svc, notifier := setupUserService(t)

	resp, err := svc.InviteReviewer(context.Background(), &dto.InviteReviewerRequest{
		Name:      "Ada Obaseki",
		Email:     "ada@uniben.edu",
		Password:  "initial-password",
		FacultyID: "fac-SSC",
	})
	if err != nil {
		t.Fatalf("邀请失败: %v", err)
	}
	if resp.Role != model.RoleReviewer {
		t.Errorf("角色期望 reviewer，实际 %s", resp.Role)
	}
	if resp.InvitationStatus != model.InvitationPending {
		t.Errorf("邀请状态期望 pending，实际 %s", resp.InvitationStatus)
	}

	created := f.users[resp.ID]
	if created == nil {
		t.Fatal("用户应已入库")
	}
	if created.InvitationExpiresAt == nil {
		t.Error("pending 邀请应带有效期")
	}
	if created.PasswordHash == "initial-password" {
		t.Error("密码不应明文入库")
	}
	if len(notifier.invited) != 1 || notifier.invited[0] != resp.ID {
		t.Errorf("应发送邀请通知，实际 %v", notifier.invited)
	}
}

func TestInviteReviewer_DirectSkipsInvitation(t *testing.T) {
	f, svc, notifier := setupUserService(t)

	resp, err := svc.InviteReviewer(context.Background(), &dto.InviteReviewerRequest{
		Name:      "Bola Ade",
		Email:     "bola@uniben.edu",
		Password:  "initial-password",
		FacultyID: "fac-SSC",
		Direct:    true,
	})
	if err != nil {
		t.Fatalf("直接添加失败: %v", err)
	}
	if resp.InvitationStatus != model.InvitationAdded {
		t.Errorf("邀请状态期望 added，实际 %s", resp.InvitationStatus)
	}
	if f.users[resp.ID].InvitationExpiresAt != nil {
		t.Error("直接添加不应带邀请有效期")
	}
	if len(notifier.invited) != 0 {
		t.Errorf("直接添加不应发送邀请邮件，实际 %v", notifier.invited)
	}
}

func TestInviteReviewer_EmailTaken(t *testing.T) {
	f, svc, _ := setupUserService(t)
	f.addReviewer("ada", f.faculties["fac-SSC"])

	_, err := svc.InviteReviewer(context.Background(), &dto.InviteReviewerRequest{
		Name:      "Another Ada",
		Email:     "ada@uniben.edu",
		Password:  "initial-password",
		FacultyID: "fac-SSC",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}
}

func TestInviteReviewer_FacultyNotFound(t *testing.T) {
	_, svc, _ := setupUserService(t)
	_, err := svc.InviteReviewer(context.Background(), &dto.InviteReviewerRequest{
		Name:      "Ada Obaseki",
		Email:     "ada@uniben.edu",
		Password:  "initial-password",
		FacultyID: "fac-missing",
	})
	if !errors.Is(err, ErrFacultyNotFound) {
		t.Errorf("期望 ErrFacultyNotFound，实际: %v", err)
	}
}

func TestRegisterResearcher(t *testing.T) {
	_, svc, _ := setupUserService(t)

	resp, err := svc.RegisterResearcher(context.Background(), &dto.RegisterResearcherRequest{
		Name:      "Dike Eze",
		Email:     "dike@uniben.edu",
		Password:  "initial-password",
		FacultyID: "fac-SSC",
	})
	if err != nil {
		t.Fatalf("注册失败: %v", err)
	}
	if resp.Role != model.RoleResearcher {
		t.Errorf("角色期望 researcher，实际 %s", resp.Role)
	}
	if resp.Faculty == nil || resp.Faculty.ID != "fac-SSC" {
		t.Errorf("应关联学院 fac-SSC，实际 %+v", resp.Faculty)
	}
}

func TestDeactivateUser_Idempotent(t *testing.T) {
	f, svc, _ := setupUserService(t)
	reviewer := f.addReviewer("ada", f.faculties["fac-SSC"])
	ctx := context.Background()

	if err := svc.DeactivateUser(ctx, reviewer.UserID); err != nil {
		t.Fatalf("停用失败: %v", err)
	}
	if reviewer.IsActive {
		t.Error("用户应已停用")
	}
	// 重复停用直接成功
	if err := svc.DeactivateUser(ctx, reviewer.UserID); err != nil {
		t.Errorf("重复停用应幂等: %v", err)
	}
}

func TestDeactivateUser_NotFound(t *testing.T) {
	_, svc, _ := setupUserService(t)
	if err := svc.DeactivateUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
