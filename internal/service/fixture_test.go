package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"epu-club/backend/config"
	"epu-club/backend/internal/dto"
	"epu-club/backend/internal/model"
)

// ── 测试夹具 ──
//
// club-1 有两个小组 team-a / team-b；officer-1 为干部，author-1、teammate-1 在 team-a，member-b 在 team-b。
// club-2 只有 team-x。staff-1 为学校工作人员，stranger-1 不属于任何社团。

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	st         *mockStore
	dispatcher *recordingDispatcher
	reqSvc     *requirementService
	subSvc     *submissionService
	exportSvc  *exportService
	notifySvc  NotificationService
	pubSvc     PublicationService
}

func newTestEnv() *testEnv {
	st := newMockStore()
	st.addUser("staff-1", model.UserRoleStaff)
	for _, id := range []string{"officer-1", "author-1", "teammate-1", "member-b", "stranger-1"} {
		st.addUser(id, model.UserRoleStudent)
	}
	st.addClub("club-1", "CLB Tin học")
	st.addClub("club-2", "Đội Tình nguyện")
	st.addTeam("team-a", "club-1")
	st.addTeam("team-b", "club-1")
	st.addTeam("team-x", "club-2")
	st.addMember("officer-1", "club-1", "", model.MemberRoleOfficer)
	st.addMember("author-1", "club-1", "team-a", model.MemberRoleMember)
	st.addMember("teammate-1", "club-1", "team-a", model.MemberRoleMember)
	st.addMember("member-b", "club-1", "team-b", model.MemberRoleMember)

	repo := newMockRepository(st)
	resolver := NewMembershipResolver(repo)
	dispatcher := &recordingDispatcher{}
	logger := zap.NewNop()
	clock := func() time.Time { return testNow }

	reqSvc := NewRequirementService(repo, resolver, logger).(*requirementService)
	reqSvc.now = clock
	subSvc := NewSubmissionService(repo, resolver, dispatcher, logger).(*submissionService)
	subSvc.now = clock
	cfg := &config.Config{Server: config.ServerConfig{BaseURL: "https://club.epu.edu.vn"}}
	exportSvc := NewExportService(cfg, repo, resolver, logger).(*exportService)
	exportSvc.now = clock

	return &testEnv{
		st:         st,
		dispatcher: dispatcher,
		reqSvc:     reqSvc,
		subSvc:     subSvc,
		exportSvc:  exportSvc,
		notifySvc:  NewNotificationService(repo, logger),
		pubSvc:     NewPublicationService(repo, logger),
	}
}

// requirement 由 staff-1 发布报告要求，返回要求 ID 与 社团→社团要求 ID
func (e *testEnv) requirement(t *testing.T, clubIDs ...string) (string, map[string]string) {
	t.Helper()
	ctx := context.Background()
	resp, err := e.reqSvc.Create(ctx, &dto.CreateRequirementRequest{
		Title:       "Báo cáo hoạt động học kỳ 1",
		Description: "Tổng kết hoạt động",
		DueDate:     testNow.Add(7 * 24 * time.Hour),
		Kind:        model.RequirementKindSemester,
		ClubIDs:     clubIDs,
	}, "staff-1")
	if err != nil {
		t.Fatalf("发布报告要求失败: %v", err)
	}
	crs := make(map[string]string, len(clubIDs))
	for _, cid := range clubIDs {
		cr, err := e.reqSvc.repo.ClubRequirement.GetByRequirementAndClub(ctx, resp.ID, cid)
		if err != nil {
			t.Fatalf("查询社团要求失败: %v", err)
		}
		crs[cid] = cr.ClubRequirementID
	}
	return resp.ID, crs
}

func reportFields(title string) dto.SubmissionFields {
	return dto.SubmissionFields{Report: &dto.ReportFields{
		ReportTitle: title,
		Content:     "Nội dung báo cáo",
		FileURL:     "https://files.epu.edu.vn/bao-cao.pdf",
	}}
}

func newsFields(title string) dto.SubmissionFields {
	return dto.SubmissionFields{Publication: &dto.PublicationFields{
		Title:    title,
		Content:  "Chào mừng tân sinh viên",
		Category: "EVENT",
	}}
}

// report 创建报告草稿
func (e *testEnv) report(t *testing.T, crID, authorID string) *dto.SubmissionResponse {
	t.Helper()
	resp, err := e.subSvc.Create(context.Background(), &dto.CreateSubmissionRequest{
		Kind:              "REPORT",
		ClubRequirementID: &crID,
		SubmissionFields:  reportFields("Báo cáo học kỳ 1"),
	}, authorID)
	if err != nil {
		t.Fatalf("创建报告草稿失败: %v", err)
	}
	return resp
}

// news 创建新闻申请草稿
func (e *testEnv) news(t *testing.T, clubID, authorID string) *dto.SubmissionResponse {
	t.Helper()
	resp, err := e.subSvc.Create(context.Background(), &dto.CreateSubmissionRequest{
		Kind:             "PUBLICATION_REQUEST",
		ClubID:           &clubID,
		SubmissionFields: newsFields("Ngày hội CLB"),
	}, authorID)
	if err != nil {
		t.Fatalf("创建新闻申请草稿失败: %v", err)
	}
	return resp
}

// stored 读取已存提交
func (e *testEnv) stored(t *testing.T, id string) model.Submission {
	t.Helper()
	e.st.mu.Lock()
	defer e.st.mu.Unlock()
	sub, ok := e.st.submissions[id]
	if !ok {
		t.Fatalf("提交 %s 不存在", id)
	}
	return sub
}

func noVersion() *dto.TransitionRequest { return &dto.TransitionRequest{} }
