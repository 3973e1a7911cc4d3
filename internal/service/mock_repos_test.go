package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"epu-club/backend/internal/model"
	"epu-club/backend/internal/repository"
	"epu-club/backend/internal/workflow"
	pkgerrors "epu-club/backend/pkg/errors"
)

// ── 内存数据集 ──
//
// 各 mock repo 共享同一份数据；返回值均为副本，
// 与真实数据库一样，调用方修改返回的结构体不会影响已存数据。

type mockStore struct {
	mu  sync.Mutex
	seq int

	users   map[string]model.User
	clubs   map[string]model.Club
	teams   map[string]model.Team
	members []model.ClubMember

	requirements map[string]model.Requirement
	clubReqs     map[string]model.ClubRequirement
	submissions  map[string]model.Submission
	subOrder     []string
	transitions  []model.SubmissionTransition
	publications []model.Publication
	notices      []model.Notification

	// failSubmissionUpdate 非空时 Submission.Update 返回该错误
	failSubmissionUpdate error
	// locked 记录 ClubRequirement.LockByID 的调用顺序
	locked []string
	// onLock 非空时在加锁返回前调用，用于模拟并发事务先提交
	onLock func(id string)
}

func newMockStore() *mockStore {
	return &mockStore{
		users:        make(map[string]model.User),
		clubs:        make(map[string]model.Club),
		teams:        make(map[string]model.Team),
		requirements: make(map[string]model.Requirement),
		clubReqs:     make(map[string]model.ClubRequirement),
		submissions:  make(map[string]model.Submission),
	}
}

func (st *mockStore) nextID(prefix string) string {
	st.seq++
	return fmt.Sprintf("%s-%d", prefix, st.seq)
}

// newMockRepository 组装不绑定数据库的 Repository，Transaction 直接调用 fn
func newMockRepository(st *mockStore) *repository.Repository {
	return &repository.Repository{
		Directory:       &mockDirectoryRepo{st},
		Requirement:     &mockRequirementRepo{st},
		ClubRequirement: &mockClubRequirementRepo{st},
		Submission:      &mockSubmissionRepo{st},
		Transition:      &mockTransitionRepo{st},
		Publication:     &mockPublicationRepo{st},
		Notification:    &mockNotificationRepo{st},
	}
}

// ── 目录数据 ──

func (st *mockStore) addUser(id, role string) {
	st.users[id] = model.User{UserID: id, Name: id, Email: id + "@epu.edu.vn", Role: role}
}

func (st *mockStore) addClub(id, name string) {
	st.clubs[id] = model.Club{ClubID: id, Name: name, Code: strings.ToUpper(id), IsActive: true}
}

func (st *mockStore) addTeam(id, clubID string) {
	st.teams[id] = model.Team{TeamID: id, ClubID: clubID, Name: "Nhóm " + id}
}

func (st *mockStore) addMember(userID, clubID, teamID, role string) {
	m := model.ClubMember{
		MembershipID: fmt.Sprintf("m-%s-%s", userID, clubID),
		ClubID:       clubID,
		UserID:       userID,
		Role:         role,
		IsActive:     true,
	}
	if teamID != "" {
		m.TeamID = &teamID
	}
	st.members = append(st.members, m)
}

type mockDirectoryRepo struct{ st *mockStore }

func (m *mockDirectoryRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if u, ok := m.st.users[id]; ok {
		return &u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) GetClub(_ context.Context, id string) (*model.Club, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if c, ok := m.st.clubs[id]; ok {
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) ListClubsByIDs(_ context.Context, ids []string) ([]model.Club, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Club
	for _, id := range ids {
		if c, ok := m.st.clubs[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockDirectoryRepo) GetTeam(_ context.Context, id string) (*model.Team, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if t, ok := m.st.teams[id]; ok {
		return &t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) ListMemberships(_ context.Context, userID, clubID string) ([]model.ClubMember, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ClubMember
	for _, mem := range m.st.members {
		if mem.UserID == userID && mem.ClubID == clubID && mem.IsActive {
			result = append(result, mem)
		}
	}
	return result, nil
}

func (m *mockDirectoryRepo) ListOfficerIDs(_ context.Context, clubID string) ([]string, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var ids []string
	for i := range m.st.members {
		mem := &m.st.members[i]
		if mem.ClubID == clubID && mem.IsActive && mem.IsOfficer() {
			ids = append(ids, mem.UserID)
		}
	}
	return ids, nil
}

func (m *mockDirectoryRepo) ListStaffIDs(_ context.Context) ([]string, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var ids []string
	for id, u := range m.st.users {
		if u.IsUniversityStaff() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ── Mock RequirementRepository ──

type mockRequirementRepo struct{ st *mockStore }

func (m *mockRequirementRepo) Create(_ context.Context, req *model.Requirement) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if req.RequirementID == "" {
		req.RequirementID = m.st.nextID("req")
	}
	req.Version = 1
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
		req.UpdatedAt = req.CreatedAt
	}
	stored := *req
	stored.ClubRequirements = nil
	m.st.requirements[req.RequirementID] = stored
	return nil
}

func (m *mockRequirementRepo) GetByID(_ context.Context, id string) (*model.Requirement, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if r, ok := m.st.requirements[id]; ok {
		return &r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRequirementRepo) Update(_ context.Context, req *model.Requirement) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	cur, ok := m.st.requirements[req.RequirementID]
	if !ok || cur.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	m.st.requirements[req.RequirementID] = *req
	return nil
}

func (m *mockRequirementRepo) Delete(_ context.Context, id, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	delete(m.st.requirements, id)
	for crID, cr := range m.st.clubReqs {
		if cr.RequirementID == id {
			delete(m.st.clubReqs, crID)
		}
	}
	return nil
}

func (m *mockRequirementRepo) List(_ context.Context, filter repository.RequirementFilter, offset, limit int) ([]model.Requirement, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Requirement
	for _, r := range m.st.requirements {
		if filter.Kind != "" && r.Kind != filter.Kind {
			continue
		}
		if !matchLike(r.SearchText, filter.Keyword) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DueDate.Before(result[j].DueDate) })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockRequirementRepo) ListByClub(_ context.Context, clubID string) ([]model.Requirement, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Requirement
	for _, r := range m.st.requirements {
		if clubID == "" {
			result = append(result, r)
			continue
		}
		for _, cr := range m.st.clubReqs {
			if cr.RequirementID == r.RequirementID && cr.ClubID == clubID {
				result = append(result, r)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DueDate.Before(result[j].DueDate) })
	return result, nil
}

// ── Mock ClubRequirementRepository ──

type mockClubRequirementRepo struct{ st *mockStore }

// hydrate 模拟 Preload(Requirement, Club, AssignedTeam)，调用方须持锁
func (m *mockClubRequirementRepo) hydrate(cr model.ClubRequirement) model.ClubRequirement {
	if r, ok := m.st.requirements[cr.RequirementID]; ok {
		cr.Requirement = &r
	}
	if c, ok := m.st.clubs[cr.ClubID]; ok {
		cr.Club = &c
	}
	if cr.AssignedTeamID != nil {
		if t, ok := m.st.teams[*cr.AssignedTeamID]; ok {
			cr.AssignedTeam = &t
		}
	}
	return cr
}

func (m *mockClubRequirementRepo) BatchCreate(_ context.Context, items []model.ClubRequirement) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for i := range items {
		for _, cr := range m.st.clubReqs {
			if cr.RequirementID == items[i].RequirementID && cr.ClubID == items[i].ClubID {
				return gorm.ErrDuplicatedKey
			}
		}
		if items[i].ClubRequirementID == "" {
			items[i].ClubRequirementID = m.st.nextID("cr")
		}
		items[i].Version = 1
		m.st.clubReqs[items[i].ClubRequirementID] = items[i]
	}
	return nil
}

func (m *mockClubRequirementRepo) GetByID(_ context.Context, id string) (*model.ClubRequirement, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if cr, ok := m.st.clubReqs[id]; ok {
		cr = m.hydrate(cr)
		return &cr, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClubRequirementRepo) LockByID(ctx context.Context, id string) (*model.ClubRequirement, error) {
	m.st.mu.Lock()
	m.st.locked = append(m.st.locked, id)
	hook := m.st.onLock
	m.st.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return m.GetByID(ctx, id)
}

func (m *mockClubRequirementRepo) GetByRequirementAndClub(_ context.Context, requirementID, clubID string) (*model.ClubRequirement, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, cr := range m.st.clubReqs {
		if cr.RequirementID == requirementID && cr.ClubID == clubID {
			return &cr, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClubRequirementRepo) ListClubIDs(_ context.Context, requirementID string) ([]string, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var ids []string
	for _, cr := range m.st.clubReqs {
		if cr.RequirementID == requirementID {
			ids = append(ids, cr.ClubID)
		}
	}
	return ids, nil
}

func (m *mockClubRequirementRepo) CountByRequirements(_ context.Context, requirementIDs []string) (map[string]int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	counts := make(map[string]int64, len(requirementIDs))
	for _, id := range requirementIDs {
		for _, cr := range m.st.clubReqs {
			if cr.RequirementID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

func (m *mockClubRequirementRepo) ListByRequirement(_ context.Context, requirementID, keyword string, offset, limit int) ([]model.ClubRequirement, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ClubRequirement
	for _, cr := range m.st.clubReqs {
		if cr.RequirementID != requirementID || !matchLike(cr.SearchText, keyword) {
			continue
		}
		result = append(result, m.hydrate(cr))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClubRequirementID < result[j].ClubRequirementID })
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockClubRequirementRepo) ListByClub(_ context.Context, clubID string, offset, limit int) ([]model.ClubRequirement, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.ClubRequirement
	for _, cr := range m.st.clubReqs {
		if cr.ClubID == clubID {
			result = append(result, m.hydrate(cr))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Requirement.DueDate.Before(result[j].Requirement.DueDate)
	})
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockClubRequirementRepo) Update(_ context.Context, item *model.ClubRequirement) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	cur, ok := m.st.clubReqs[item.ClubRequirementID]
	if !ok || cur.Version != item.Version {
		return pkgerrors.ErrOptimisticLock
	}
	cur.AssignedTeamID = item.AssignedTeamID
	cur.Note = item.Note
	cur.Version++
	item.Version = cur.Version
	m.st.clubReqs[item.ClubRequirementID] = cur
	return nil
}

func (m *mockClubRequirementRepo) Delete(_ context.Context, id, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	delete(m.st.clubReqs, id)
	return nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct{ st *mockStore }

func (m *mockSubmissionRepo) Create(_ context.Context, sub *model.Submission) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	// 与 uq_submissions_open_per_club_requirement 一致
	if sub.ClubRequirementID != nil && workflow.IsOpen(sub.Status, sub.MustResubmit) {
		for _, other := range m.st.submissions {
			if other.ClubRequirementID != nil && *other.ClubRequirementID == *sub.ClubRequirementID &&
				workflow.IsOpen(other.Status, other.MustResubmit) {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	if sub.SubmissionID == "" {
		sub.SubmissionID = m.st.nextID("sub")
	}
	sub.Version = 1
	now := time.Now()
	sub.CreatedAt, sub.UpdatedAt = now, now
	stored := *sub
	stored.Club, stored.Team, stored.ClubRequirement = nil, nil, nil
	m.st.submissions[sub.SubmissionID] = stored
	m.st.subOrder = append(m.st.subOrder, sub.SubmissionID)
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	sub, ok := m.st.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c, ok := m.st.clubs[sub.ClubID]; ok {
		sub.Club = &c
	}
	return &sub, nil
}

func (m *mockSubmissionRepo) Update(_ context.Context, sub *model.Submission, expectedStatus workflow.Status) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	if m.st.failSubmissionUpdate != nil {
		return m.st.failSubmissionUpdate
	}
	cur, ok := m.st.submissions[sub.SubmissionID]
	if !ok || cur.Status != expectedStatus || cur.Version != sub.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored := *sub
	stored.Version++
	stored.Club, stored.Team, stored.ClubRequirement = nil, nil, nil
	m.st.submissions[sub.SubmissionID] = stored
	sub.Version = stored.Version
	return nil
}

func (m *mockSubmissionRepo) Delete(_ context.Context, id, _ string) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	delete(m.st.submissions, id)
	return nil
}

func (m *mockSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter, offset, limit int) ([]model.Submission, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Submission
	for _, id := range m.st.subOrder {
		sub, ok := m.st.submissions[id]
		if !ok || !m.matches(&sub, filter) {
			continue
		}
		result = append(result, sub)
	}
	return page(result, offset, limit), int64(len(result)), nil
}

// matches 与 submissionRepo.List 的过滤及 applyScope 保持一致，调用方须持锁
func (m *mockSubmissionRepo) matches(sub *model.Submission, f repository.SubmissionFilter) bool {
	switch {
	case f.ClubID != "" && sub.ClubID != f.ClubID,
		f.TeamID != "" && (sub.TeamID == nil || *sub.TeamID != f.TeamID),
		f.AuthorID != "" && sub.AuthorID != f.AuthorID,
		f.Status != "" && string(sub.Status) != f.Status,
		f.Kind != "" && string(sub.Kind) != f.Kind,
		!matchLike(sub.SearchText, f.Keyword):
		return false
	}
	if f.RequirementID != "" {
		if sub.ClubRequirementID == nil {
			return false
		}
		cr, ok := m.st.clubReqs[*sub.ClubRequirementID]
		if !ok || cr.RequirementID != f.RequirementID {
			return false
		}
	}

	scope := f.Scope
	if scope.ViewerID == "" {
		return true
	}
	switch {
	case scope.AllButDrafts:
		return sub.Status != workflow.StatusDraft || sub.AuthorID == scope.ViewerID
	case scope.ClubWide:
		return true
	case len(scope.TeamIDs) > 0:
		if sub.AuthorID == scope.ViewerID {
			return true
		}
		for _, t := range scope.TeamIDs {
			if sub.TeamID != nil && *sub.TeamID == t {
				return true
			}
		}
		return false
	default:
		return sub.AuthorID == scope.ViewerID
	}
}

func (m *mockSubmissionRepo) CountOpenByClubRequirement(_ context.Context, clubRequirementID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for _, sub := range m.st.submissions {
		if sub.ClubRequirementID != nil && *sub.ClubRequirementID == clubRequirementID &&
			workflow.IsOpen(sub.Status, sub.MustResubmit) {
			n++
		}
	}
	return n, nil
}

func (m *mockSubmissionRepo) CountByClubRequirement(_ context.Context, clubRequirementID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for _, sub := range m.st.submissions {
		if sub.ClubRequirementID != nil && *sub.ClubRequirementID == clubRequirementID {
			n++
		}
	}
	return n, nil
}

func (m *mockSubmissionRepo) CountByRequirement(_ context.Context, requirementID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for _, sub := range m.st.submissions {
		if m.underRequirement(&sub, requirementID) {
			n++
		}
	}
	return n, nil
}

func (m *mockSubmissionRepo) underRequirement(sub *model.Submission, requirementID string) bool {
	if sub.ClubRequirementID == nil {
		return false
	}
	cr, ok := m.st.clubReqs[*sub.ClubRequirementID]
	return ok && cr.RequirementID == requirementID
}

func (m *mockSubmissionRepo) HasNonDraftByClubRequirement(_ context.Context, clubRequirementID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, sub := range m.st.submissions {
		if sub.ClubRequirementID != nil && *sub.ClubRequirementID == clubRequirementID &&
			sub.Status != workflow.StatusDraft {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubmissionRepo) HasNonDraftByRequirement(_ context.Context, requirementID string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, sub := range m.st.submissions {
		if m.underRequirement(&sub, requirementID) && sub.Status != workflow.StatusDraft {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubmissionRepo) ReassignDrafts(_ context.Context, clubRequirementID string, teamID *string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for id, sub := range m.st.submissions {
		if sub.ClubRequirementID == nil || *sub.ClubRequirementID != clubRequirementID || sub.Status != workflow.StatusDraft {
			continue
		}
		if teamID != nil {
			v := *teamID
			sub.TeamID = &v
		} else {
			sub.TeamID = nil
		}
		sub.Version++
		m.st.submissions[id] = sub
		n++
	}
	return n, nil
}

func (m *mockSubmissionRepo) HasPublicationDraft(_ context.Context, authorID, clubID string, teamID *string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, sub := range m.st.submissions {
		if sub.Kind != workflow.KindPublicationRequest || sub.Status != workflow.StatusDraft ||
			sub.AuthorID != authorID || sub.ClubID != clubID {
			continue
		}
		if model.StrVal(sub.TeamID) == model.StrVal(teamID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubmissionRepo) LatestByClubRequirements(_ context.Context, clubRequirementIDs []string) (map[string]model.Submission, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	want := make(map[string]bool, len(clubRequirementIDs))
	for _, id := range clubRequirementIDs {
		want[id] = true
	}
	result := make(map[string]model.Submission)
	// subOrder 即创建顺序，后写覆盖前写
	for _, id := range m.st.subOrder {
		sub, ok := m.st.submissions[id]
		if ok && sub.ClubRequirementID != nil && want[*sub.ClubRequirementID] {
			result[*sub.ClubRequirementID] = sub
		}
	}
	return result, nil
}

// ── Mock TransitionRepository ──

type mockTransitionRepo struct{ st *mockStore }

func (m *mockTransitionRepo) Append(_ context.Context, t *model.SubmissionTransition) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	last := 0
	for _, existing := range m.st.transitions {
		if existing.SubmissionID == t.SubmissionID && existing.Seq > last {
			last = existing.Seq
		}
	}
	t.Seq = last + 1
	t.TransitionID = m.st.nextID("tr")
	m.st.transitions = append(m.st.transitions, *t)
	return nil
}

func (m *mockTransitionRepo) ListBySubmission(_ context.Context, submissionID string) ([]model.SubmissionTransition, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.SubmissionTransition
	for _, t := range m.st.transitions {
		if t.SubmissionID == submissionID {
			result = append(result, t)
		}
	}
	return result, nil
}

// ── Mock PublicationRepository ──

type mockPublicationRepo struct{ st *mockStore }

func (m *mockPublicationRepo) Create(_ context.Context, p *model.Publication) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for _, existing := range m.st.publications {
		if existing.SubmissionID == p.SubmissionID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.st.publications = append(m.st.publications, *p)
	return nil
}

func (m *mockPublicationRepo) List(_ context.Context, clubID, kind string, offset, limit int) ([]model.Publication, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Publication
	for i := len(m.st.publications) - 1; i >= 0; i-- {
		p := m.st.publications[i]
		if (clubID != "" && p.ClubID != clubID) || (kind != "" && string(p.Kind) != kind) {
			continue
		}
		if c, ok := m.st.clubs[p.ClubID]; ok {
			p.Club = &c
		}
		result = append(result, p)
	}
	return page(result, offset, limit), int64(len(result)), nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ st *mockStore }

func (m *mockNotificationRepo) BatchCreate(_ context.Context, items []model.Notification) error {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for i := range items {
		if items[i].NotificationID == "" {
			items[i].NotificationID = m.st.nextID("n")
		}
		m.st.notices = append(m.st.notices, items[i])
	}
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var result []model.Notification
	for _, n := range m.st.notices {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, n)
		}
	}
	return page(result, offset, limit), int64(len(result)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for _, item := range m.st.notices {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, id string) (bool, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	for i := range m.st.notices {
		if m.st.notices[i].NotificationID == id && m.st.notices[i].UserID == userID {
			m.st.notices[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	var n int64
	for i := range m.st.notices {
		if m.st.notices[i].UserID == userID && !m.st.notices[i].IsRead {
			m.st.notices[i].IsRead = true
			n++
		}
	}
	return n, nil
}

// ── 辅助 ──

// matchLike 近似 ILIKE：去掉首尾 % 后做包含判断
func matchLike(text, pattern string) bool {
	if pattern == "" {
		return true
	}
	needle := strings.Trim(pattern, "%")
	needle = strings.NewReplacer(`\%`, "%", `\_`, "_", `\\`, `\`).Replace(needle)
	return strings.Contains(text, needle)
}

func page[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── 分发器 / 缓存替身 ──

// recordingDispatcher 同步记录事件
type recordingDispatcher struct {
	mu     sync.Mutex
	events []TransitionEvent
}

func (d *recordingDispatcher) Dispatch(evt TransitionEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, evt)
}

func (d *recordingDispatcher) all() []TransitionEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]TransitionEvent(nil), d.events...)
}

// countingResolver 统计回源次数
type countingResolver struct {
	mu    sync.Mutex
	calls int
	caps  workflow.CapabilitySet
	err   error
}

func (r *countingResolver) Capabilities(_ context.Context, _, _ string) (workflow.CapabilitySet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.caps, r.err
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (c *memoryCache) CacheGet(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", false, c.getErr
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memoryCache) CacheSet(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.values[key] = value
	c.ttls[key] = ttl
	return nil
}
