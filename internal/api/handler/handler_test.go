package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"epu-club/backend/internal/dto"
	"epu-club/backend/internal/service"
	"epu-club/backend/internal/workflow"
	pkgerrors "epu-club/backend/pkg/errors"
	"epu-club/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock SubmissionService ──

type mockSubmissionService struct {
	result    *dto.SubmissionResponse
	list      []dto.SubmissionResponse
	total     int64
	history   []dto.TransitionResponse
	err       error
	lastID    string
	lastCall  string
	lastPlain *dto.TransitionRequest
	lastRej   *dto.RejectRequest
	lastList  *dto.SubmissionListRequest
}

func (m *mockSubmissionService) Create(_ context.Context, _ *dto.CreateSubmissionRequest, _ string) (*dto.SubmissionResponse, error) {
	return m.result, m.err
}
func (m *mockSubmissionService) GetByID(_ context.Context, id, _ string) (*dto.SubmissionResponse, error) {
	m.lastID = id
	return m.result, m.err
}
func (m *mockSubmissionService) List(_ context.Context, req *dto.SubmissionListRequest, _ string) ([]dto.SubmissionResponse, int64, error) {
	m.lastList = req
	return m.list, m.total, m.err
}
func (m *mockSubmissionService) History(_ context.Context, _, _ string) ([]dto.TransitionResponse, error) {
	return m.history, m.err
}
func (m *mockSubmissionService) UpdateDraft(_ context.Context, _ string, _ *dto.UpdateDraftRequest, _ string) (*dto.SubmissionResponse, error) {
	return m.result, m.err
}
func (m *mockSubmissionService) DeleteDraft(_ context.Context, _, _ string) error {
	return m.err
}
func (m *mockSubmissionService) plain(call, id string, req *dto.TransitionRequest) (*dto.SubmissionResponse, error) {
	m.lastCall, m.lastID, m.lastPlain = call, id, req
	return m.result, m.err
}
func (m *mockSubmissionService) Submit(_ context.Context, id string, req *dto.TransitionRequest, _ string) (*dto.SubmissionResponse, error) {
	return m.plain("submit", id, req)
}
func (m *mockSubmissionService) Cancel(_ context.Context, id string, req *dto.TransitionRequest, _ string) (*dto.SubmissionResponse, error) {
	return m.plain("cancel", id, req)
}
func (m *mockSubmissionService) ClubApprove(_ context.Context, id string, req *dto.TransitionRequest, _ string) (*dto.SubmissionResponse, error) {
	return m.plain("club_approve", id, req)
}
func (m *mockSubmissionService) UniversityApprove(_ context.Context, id string, req *dto.TransitionRequest, _ string) (*dto.SubmissionResponse, error) {
	return m.plain("university_approve", id, req)
}
func (m *mockSubmissionService) ClubReject(_ context.Context, id string, req *dto.RejectRequest, _ string) (*dto.SubmissionResponse, error) {
	m.lastCall, m.lastID, m.lastRej = "club_reject", id, req
	return m.result, m.err
}
func (m *mockSubmissionService) UniversityReject(_ context.Context, id string, req *dto.RejectRequest, _ string) (*dto.SubmissionResponse, error) {
	m.lastCall, m.lastID, m.lastRej = "university_reject", id, req
	return m.result, m.err
}
func (m *mockSubmissionService) Resubmit(_ context.Context, id string, _ *dto.ResubmitRequest, _ string) (*dto.SubmissionResponse, error) {
	m.lastCall, m.lastID = "resubmit", id
	return m.result, m.err
}

// ── Mock RequirementService ──

type mockRequirementService struct {
	result   *dto.RequirementResponse
	list     []dto.RequirementResponse
	total    int64
	err      error
	lastList *dto.RequirementListRequest
}

func (m *mockRequirementService) Create(_ context.Context, _ *dto.CreateRequirementRequest, _ string) (*dto.RequirementResponse, error) {
	return m.result, m.err
}
func (m *mockRequirementService) Update(_ context.Context, _ string, _ *dto.UpdateRequirementRequest, _ string) (*dto.RequirementResponse, error) {
	return m.result, m.err
}
func (m *mockRequirementService) GetByID(_ context.Context, _ string) (*dto.RequirementResponse, error) {
	return m.result, m.err
}
func (m *mockRequirementService) List(_ context.Context, req *dto.RequirementListRequest) ([]dto.RequirementResponse, int64, error) {
	m.lastList = req
	return m.list, m.total, m.err
}
func (m *mockRequirementService) Delete(_ context.Context, _, _ string) error { return m.err }
func (m *mockRequirementService) AddClubs(_ context.Context, _ string, _ *dto.AddClubsRequest, _ string) ([]dto.ClubRequirementResponse, error) {
	return nil, m.err
}
func (m *mockRequirementService) RemoveClub(_ context.Context, _, _, _ string) error { return m.err }
func (m *mockRequirementService) AssignTeam(_ context.Context, _ string, _ *dto.AssignTeamRequest, _ string) (*dto.ClubRequirementResponse, error) {
	return nil, m.err
}
func (m *mockRequirementService) ListClubRequirements(_ context.Context, _ string, _ *dto.ClubRequirementListRequest, _ string) ([]dto.ClubRequirementResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockRequirementService) ListByClub(_ context.Context, _ string, _ *dto.PaginationRequest, _ string) ([]dto.ClubRequirementResponse, int64, error) {
	return nil, 0, m.err
}

// ── Mock NotificationService ──

type mockNotificationService struct {
	err      error
	markedID string
	updated  int64
}

func (m *mockNotificationService) List(_ context.Context, _ string, _ *dto.NotificationListRequest) ([]dto.NotificationResponse, int64, error) {
	return nil, 0, m.err
}
func (m *mockNotificationService) UnreadCount(_ context.Context, _ string) (*dto.UnreadCountResponse, error) {
	return &dto.UnreadCountResponse{Count: 3}, m.err
}
func (m *mockNotificationService) MarkRead(_ context.Context, _, id string) error {
	m.markedID = id
	return m.err
}
func (m *mockNotificationService) MarkAllRead(_ context.Context, _ string) (int64, error) {
	return m.updated, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
	clubID   string
}

func (m *mockExportService) ExportRequirementProgress(_ context.Context, _, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) RequirementCalendar(_ context.Context, clubID, _ string) (*bytes.Buffer, string, error) {
	m.clubID = clubID
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func withUser(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "test-user-id")
		c.Set("role", "student")
		h(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// handleServiceError Tests
// ═══════════════════════════════════════════════════════════

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    int
		details string
	}{
		{"校验失败", service.ErrDueDateNotFuture, http.StatusBadRequest, codeValidation, ""},
		{"无权限", service.ErrUniversityOnly, http.StatusForbidden, codeForbidden, ""},
		{"不存在", service.ErrSubmissionNotFound, http.StatusNotFound, codeNotFound, ""},
		{"非法流转", &workflow.TransitionError{Current: workflow.StatusCanceled, Event: workflow.EventCancel},
			http.StatusConflict, codeInvalidTransition, "current_status=CANCELED; event=cancel"},
		{"版本过期", service.ErrStaleVersion, http.StatusConflict, codeStaleVersion, ""},
		{"乐观锁", pkgerrors.ErrOptimisticLock, http.StatusConflict, codeStaleVersion, ""},
		{"重复提交", service.ErrOpenSubmissionExists, http.StatusConflict, codeConflict, ""},
		{"未知错误", errors.New("db down"), http.StatusInternalServerError, 50000, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			handleServiceError(c, tt.err)

			if w.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.code {
				t.Errorf("expected code %d, got %d", tt.code, resp.Code)
			}
			if resp.Details != tt.details {
				t.Errorf("expected details %q, got %q", tt.details, resp.Details)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// SubmissionHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSubmissionHandler_Create(t *testing.T) {
	mock := &mockSubmissionService{result: &dto.SubmissionResponse{ID: "sub-1", Status: "DRAFT"}}
	h := NewSubmissionHandler(mock)
	r := gin.New()
	r.POST("/submissions", withUser(h.CreateSubmission))

	w := serve(r, "POST", "/submissions", jsonBody(map[string]interface{}{
		"kind":    "PUBLICATION_REQUEST",
		"club_id": "8b7f2a3e-4c1d-4e5f-9a6b-7c8d9e0f1a2b",
		"publication": map[string]string{"title": "Ngày hội", "content": "...", "category": "EVENT"},
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(r, "POST", "/submissions", jsonBody(map[string]string{"kind": "MEMO"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind: expected 400, got %d", w.Code)
	}

	w = serve(r, "POST", "/submissions", strings.NewReader("invalid json"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad json: expected 400, got %d", w.Code)
	}
}

func TestSubmissionHandler_Unauthenticated(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{})
	r := gin.New()
	r.GET("/submissions/:id", h.GetSubmission)

	w := serve(r, "GET", "/submissions/sub-1", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestSubmissionHandler_TransitionRoutes(t *testing.T) {
	mock := &mockSubmissionService{result: &dto.SubmissionResponse{ID: "sub-1"}}
	h := NewSubmissionHandler(mock)
	r := gin.New()
	r.POST("/submissions/:id/submit", withUser(h.Submit))
	r.POST("/submissions/:id/cancel", withUser(h.Cancel))
	r.POST("/submissions/:id/club-approve", withUser(h.ClubApprove))
	r.POST("/submissions/:id/university-approve", withUser(h.UniversityApprove))
	r.POST("/submissions/:id/resubmit", withUser(h.Resubmit))

	for path, call := range map[string]string{
		"submit":             "submit",
		"cancel":             "cancel",
		"club-approve":       "club_approve",
		"university-approve": "university_approve",
		"resubmit":           "resubmit",
	} {
		w := serve(r, "POST", "/submissions/sub-1/"+path, nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
		if mock.lastCall != call || mock.lastID != "sub-1" {
			t.Errorf("%s: routed to %s(%s)", path, mock.lastCall, mock.lastID)
		}
	}
}

func TestSubmissionHandler_Submit_ExpectedVersion(t *testing.T) {
	mock := &mockSubmissionService{result: &dto.SubmissionResponse{ID: "sub-1"}}
	h := NewSubmissionHandler(mock)
	r := gin.New()
	r.POST("/submissions/:id/submit", withUser(h.Submit))

	// 空请求体：不带版本
	serve(r, "POST", "/submissions/sub-1/submit", nil)
	if mock.lastPlain == nil || mock.lastPlain.ExpectedVersion != nil {
		t.Error("empty body should pass a request without expected_version")
	}

	serve(r, "POST", "/submissions/sub-1/submit", jsonBody(map[string]int{"expected_version": 4}))
	if mock.lastPlain.ExpectedVersion == nil || *mock.lastPlain.ExpectedVersion != 4 {
		t.Error("expected_version should be bound from the body")
	}

	w := serve(r, "POST", "/submissions/sub-1/submit", jsonBody(map[string]int{"expected_version": 0}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected_version=0: expected 400, got %d", w.Code)
	}
}

func TestSubmissionHandler_Submit_InvalidTransition(t *testing.T) {
	mock := &mockSubmissionService{err: &workflow.TransitionError{Current: workflow.StatusPendingClub, Event: workflow.EventSubmit}}
	h := NewSubmissionHandler(mock)
	r := gin.New()
	r.POST("/submissions/:id/submit", withUser(h.Submit))

	w := serve(r, "POST", "/submissions/sub-1/submit", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if !strings.Contains(resp.Details, "PENDING_CLUB") {
		t.Errorf("details should carry the current status, got %q", resp.Details)
	}
}

func TestSubmissionHandler_Reject(t *testing.T) {
	mock := &mockSubmissionService{result: &dto.SubmissionResponse{ID: "sub-1"}}
	h := NewSubmissionHandler(mock)
	r := gin.New()
	r.POST("/submissions/:id/university-reject", withUser(h.UniversityReject))
	r.POST("/submissions/:id/club-reject", withUser(h.ClubReject))

	serve(r, "POST", "/submissions/sub-1/university-reject", jsonBody(map[string]interface{}{
		"feedback":      "Thiếu minh chứng",
		"must_resubmit": true,
	}))
	if mock.lastCall != "university_reject" || mock.lastRej == nil {
		t.Fatal("expected UniversityReject to be called")
	}
	if mock.lastRej.Feedback != "Thiếu minh chứng" || !mock.lastRej.MustResubmit {
		t.Errorf("reject body not bound: %+v", mock.lastRej)
	}

	// 空意见交由服务层判定
	mock.err = pkgerrors.New(pkgerrors.ErrValidation, "驳回时必须填写审核意见")
	w := serve(r, "POST", "/submissions/sub-1/club-reject", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != codeValidation {
		t.Errorf("expected code %d, got %d", codeValidation, resp.Code)
	}
}

func TestSubmissionHandler_List(t *testing.T) {
	mock := &mockSubmissionService{list: []dto.SubmissionResponse{{ID: "sub-1"}}, total: 41}
	h := NewSubmissionHandler(mock)
	r := gin.New()
	r.GET("/submissions", withUser(h.ListSubmissions))

	w := serve(r, "GET", "/submissions?status=PENDING_CLUB&page=3&page_size=20&keyword=tin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastList.Status != "PENDING_CLUB" || mock.lastList.Keyword != "tin" {
		t.Errorf("query not bound: %+v", mock.lastList)
	}

	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 || body.Data.Pagination.Page != 3 {
		t.Errorf("unexpected pagination: %+v", body.Data.Pagination)
	}

	w = serve(r, "GET", "/submissions?club_id=not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSubmissionHandler_DeleteDraft_NotFound(t *testing.T) {
	h := NewSubmissionHandler(&mockSubmissionService{err: service.ErrSubmissionNotFound})
	r := gin.New()
	r.DELETE("/submissions/:id", withUser(h.DeleteDraft))

	w := serve(r, "DELETE", "/submissions/sub-404", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// RequirementHandler Tests
// ═══════════════════════════════════════════════════════════

func TestRequirementHandler_Create(t *testing.T) {
	mock := &mockRequirementService{result: &dto.RequirementResponse{ID: "req-1"}}
	h := NewRequirementHandler(mock)
	r := gin.New()
	r.POST("/requirements", withUser(h.CreateRequirement))

	w := serve(r, "POST", "/requirements", jsonBody(map[string]interface{}{
		"title":    "Báo cáo học kỳ",
		"due_date": "2026-12-01T17:00:00+07:00",
		"kind":     "SEMESTER",
		"club_ids": []string{"8b7f2a3e-4c1d-4e5f-9a6b-7c8d9e0f1a2b"},
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(r, "POST", "/requirements", jsonBody(map[string]interface{}{
		"title":    "Báo cáo học kỳ",
		"due_date": "2026-12-01T17:00:00+07:00",
		"kind":     "SEMESTER",
		"club_ids": []string{},
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty club_ids: expected 400, got %d", w.Code)
	}

	mock.err = service.ErrDueDateNotFuture
	w = serve(r, "POST", "/requirements", jsonBody(map[string]interface{}{
		"title":    "Báo cáo học kỳ",
		"due_date": "2020-01-01T00:00:00Z",
		"kind":     "SEMESTER",
		"club_ids": []string{"8b7f2a3e-4c1d-4e5f-9a6b-7c8d9e0f1a2b"},
	}))
	if w.Code != http.StatusBadRequest || parseResponse(w).Code != codeValidation {
		t.Errorf("past due date: expected 400/%d, got %d/%d", codeValidation, w.Code, parseResponse(w).Code)
	}
}

func TestRequirementHandler_List(t *testing.T) {
	mock := &mockRequirementService{list: []dto.RequirementResponse{{ID: "req-1"}}, total: 1}
	h := NewRequirementHandler(mock)
	r := gin.New()
	r.GET("/requirements", h.ListRequirements)

	w := serve(r, "GET", "/requirements?kind=EVENT&keyword=bao%20cao", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.lastList.Kind != "EVENT" || mock.lastList.Keyword != "bao cao" {
		t.Errorf("query not bound: %+v", mock.lastList)
	}

	w = serve(r, "GET", "/requirements?kind=WEEKLY", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRequirementHandler_Delete_Conflict(t *testing.T) {
	h := NewRequirementHandler(&mockRequirementService{err: service.ErrRequirementHasSubmissions})
	r := gin.New()
	r.DELETE("/requirements/:id", withUser(h.DeleteRequirement))

	w := serve(r, "DELETE", "/requirements/req-1", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// NotificationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestNotificationHandler(t *testing.T) {
	mock := &mockNotificationService{updated: 5}
	h := NewNotificationHandler(mock)
	r := gin.New()
	r.GET("/notifications/unread-count", withUser(h.UnreadCount))
	r.PUT("/notifications/read-all", withUser(h.MarkAllRead))
	r.PUT("/notifications/:id/read", withUser(h.MarkRead))

	w := serve(r, "GET", "/notifications/unread-count", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"count":3`) {
		t.Errorf("unexpected unread count response: %d %s", w.Code, w.Body.String())
	}

	w = serve(r, "PUT", "/notifications/read-all", nil)
	if !strings.Contains(w.Body.String(), `"updated":5`) {
		t.Errorf("unexpected read-all response: %s", w.Body.String())
	}

	serve(r, "PUT", "/notifications/n-1/read", nil)
	if mock.markedID != "n-1" {
		t.Errorf("expected n-1 marked, got %q", mock.markedID)
	}

	mock.err = service.ErrNotificationNotFound
	w = serve(r, "PUT", "/notifications/n-2/read", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Progress(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("xlsx-bytes"), filename: "报告进度_Học kỳ 1.xlsx"}
	h := NewExportHandler(mock)
	r := gin.New()
	r.GET("/export/requirements/:id/progress", withUser(h.ExportRequirementProgress))

	w := serve(r, "GET", "/export/requirements/req-1/progress", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Errorf("unexpected content type %q", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") || strings.Contains(strings.TrimPrefix(cd, "attachment; "), " ") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Error("body should be the generated file")
	}

	mock.err = service.ErrUniversityOnly
	w = serve(r, "GET", "/export/requirements/req-1/progress", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestExportHandler_Calendar(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("BEGIN:VCALENDAR"), filename: "requirements.ics"}
	h := NewExportHandler(mock)
	r := gin.New()
	r.GET("/export/calendar", withUser(h.RequirementCalendar))

	w := serve(r, "GET", "/export/calendar?club_id=club-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.clubID != "club-1" {
		t.Errorf("club_id not forwarded, got %q", mock.clubID)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type %q", ct)
	}
}
