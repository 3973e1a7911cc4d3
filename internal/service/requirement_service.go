package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"epu-club/backend/internal/dto"
	"epu-club/backend/internal/model"
	"epu-club/backend/internal/repository"
	"epu-club/backend/internal/workflow"
	"epu-club/backend/pkg/textfold"
)

// RequirementService 报告要求 / 社团要求 / 小组委派业务接口
type RequirementService interface {
	Create(ctx context.Context, req *dto.CreateRequirementRequest, callerID string) (*dto.RequirementResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRequirementRequest, callerID string) (*dto.RequirementResponse, error)
	GetByID(ctx context.Context, id string) (*dto.RequirementResponse, error)
	List(ctx context.Context, req *dto.RequirementListRequest) ([]dto.RequirementResponse, int64, error)
	Delete(ctx context.Context, id, callerID string) error
	// AddClubs 追加目标社团，已存在的社团忽略
	AddClubs(ctx context.Context, id string, req *dto.AddClubsRequest, callerID string) ([]dto.ClubRequirementResponse, error)
	// RemoveClub 移除尚无任何提交的社团要求
	RemoveClub(ctx context.Context, id, clubID, callerID string) error
	AssignTeam(ctx context.Context, clubRequirementID string, req *dto.AssignTeamRequest, callerID string) (*dto.ClubRequirementResponse, error)
	ListClubRequirements(ctx context.Context, requirementID string, req *dto.ClubRequirementListRequest, callerID string) ([]dto.ClubRequirementResponse, int64, error)
	// ListByClub 某社团收到的全部要求及进度
	ListByClub(ctx context.Context, clubID string, req *dto.PaginationRequest, callerID string) ([]dto.ClubRequirementResponse, int64, error)
}

type requirementService struct {
	repo     *repository.Repository
	resolver CapabilityResolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewRequirementService 创建 RequirementService 实例
func NewRequirementService(repo *repository.Repository, resolver CapabilityResolver, logger *zap.Logger) RequirementService {
	return &requirementService{repo: repo, resolver: resolver, logger: logger, now: time.Now}
}

func (s *requirementService) requireUniversity(ctx context.Context, callerID string) error {
	ok, err := HasCapability(ctx, s.resolver, callerID, "", workflow.CapUniversity)
	if err != nil {
		s.logger.Error("解析权限失败", zap.String("user_id", callerID), zap.Error(err))
		return err
	}
	if !ok {
		return ErrUniversityOnly
	}
	return nil
}

// validateDueDate 截止时间必须严格晚于当前时间
func (s *requirementService) validateDueDate(due time.Time) error {
	if !due.After(s.now()) {
		return ErrDueDateNotFuture
	}
	return nil
}

// ────────────────────── Create ──────────────────────

func (s *requirementService) Create(ctx context.Context, req *dto.CreateRequirementRequest, callerID string) (*dto.RequirementResponse, error) {
	if err := s.requireUniversity(ctx, callerID); err != nil {
		return nil, err
	}
	if err := s.validateDueDate(req.DueDate); err != nil {
		return nil, err
	}
	if !model.ValidRequirementKind(req.Kind) {
		return nil, ErrInvalidRequirementKind
	}

	clubs, err := s.loadClubs(ctx, dedupe(req.ClubIDs))
	if err != nil {
		return nil, err
	}

	requirement := &model.Requirement{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Kind:        req.Kind,
		TemplateURL: req.TemplateURL,
		SearchText:  textfold.Join(req.Title, req.Description),
	}
	requirement.CreatedBy = &callerID
	requirement.UpdatedBy = &callerID

	var count int
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Requirement.Create(ctx, requirement); err != nil {
			return err
		}
		items := newClubRequirements(requirement.RequirementID, clubs, callerID)
		count = len(items)
		return tx.ClubRequirement.BatchCreate(ctx, items)
	})
	if err != nil {
		s.logger.Error("创建报告要求失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("报告要求已发布",
		zap.String("requirement_id", requirement.RequirementID),
		zap.Int("clubs", count),
	)
	return toRequirementResponse(requirement, count), nil
}

// loadClubs 校验并加载目标社团，顺序与 ids 一致
func (s *requirementService) loadClubs(ctx context.Context, ids []string) ([]model.Club, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	clubs, err := s.repo.Directory.ListClubsByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询社团失败", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]model.Club, len(clubs))
	for _, c := range clubs {
		byID[c.ClubID] = c
	}
	ordered := make([]model.Club, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok {
			return nil, ErrUnknownClub
		}
		ordered = append(ordered, c)
	}
	return ordered, nil
}

func newClubRequirements(requirementID string, clubs []model.Club, callerID string) []model.ClubRequirement {
	items := make([]model.ClubRequirement, 0, len(clubs))
	for _, c := range clubs {
		item := model.ClubRequirement{
			RequirementID: requirementID,
			ClubID:        c.ClubID,
			SearchText:    textfold.Join(c.Name),
		}
		item.CreatedBy = &callerID
		item.UpdatedBy = &callerID
		items = append(items, item)
	}
	return items
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// ────────────────────── Update ──────────────────────

func (s *requirementService) Update(ctx context.Context, id string, req *dto.UpdateRequirementRequest, callerID string) (*dto.RequirementResponse, error) {
	if err := s.requireUniversity(ctx, callerID); err != nil {
		return nil, err
	}

	requirement, err := s.getRequirement(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(req.ExpectedVersion, requirement.Version); err != nil {
		return nil, err
	}

	if req.Title != nil {
		requirement.Title = *req.Title
	}
	if req.Description != nil {
		requirement.Description = *req.Description
	}
	if req.TemplateURL != nil {
		requirement.TemplateURL = model.StrPtr(*req.TemplateURL)
	}
	if req.DueDate != nil {
		if err := s.validateDueDate(*req.DueDate); err != nil {
			return nil, err
		}
		requirement.DueDate = *req.DueDate
	}
	if req.Kind != nil && *req.Kind != requirement.Kind {
		if !model.ValidRequirementKind(*req.Kind) {
			return nil, ErrInvalidRequirementKind
		}
		// 已有社团正式提交时类型不可改，其余字段仍可编辑
		locked, err := s.repo.Submission.HasNonDraftByRequirement(ctx, id)
		if err != nil {
			s.logger.Error("查询提交状态失败", zap.String("requirement_id", id), zap.Error(err))
			return nil, err
		}
		if locked {
			return nil, ErrRequirementKindLocked
		}
		requirement.Kind = *req.Kind
	}

	requirement.SearchText = textfold.Join(requirement.Title, requirement.Description)
	requirement.UpdatedBy = &callerID
	if err := s.repo.Requirement.Update(ctx, requirement); err != nil {
		if mapped := mapWriteError(err, ErrStaleVersion); mapped != err {
			return nil, mapped
		}
		s.logger.Error("更新报告要求失败", zap.String("requirement_id", id), zap.Error(err))
		return nil, err
	}

	return s.withClubCount(ctx, requirement), nil
}

// ────────────────────── Get / List / Delete ──────────────────────

func (s *requirementService) getRequirement(ctx context.Context, id string) (*model.Requirement, error) {
	requirement, err := s.repo.Requirement.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrRequirementNotFound
		}
		s.logger.Error("查询报告要求失败", zap.String("requirement_id", id), zap.Error(err))
		return nil, err
	}
	return requirement, nil
}

func (s *requirementService) withClubCount(ctx context.Context, r *model.Requirement) *dto.RequirementResponse {
	counts, err := s.repo.ClubRequirement.CountByRequirements(ctx, []string{r.RequirementID})
	if err != nil {
		s.logger.Warn("统计社团数失败，回退为0", zap.Error(err))
		counts = map[string]int64{}
	}
	return toRequirementResponse(r, int(counts[r.RequirementID]))
}

func (s *requirementService) GetByID(ctx context.Context, id string) (*dto.RequirementResponse, error) {
	requirement, err := s.getRequirement(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withClubCount(ctx, requirement), nil
}

func (s *requirementService) List(ctx context.Context, req *dto.RequirementListRequest) ([]dto.RequirementResponse, int64, error) {
	filter := repository.RequirementFilter{Kind: req.Kind}
	if textfold.Fold(req.Keyword) != "" {
		filter.Keyword = textfold.LikePattern(req.Keyword)
	}

	items, total, err := s.repo.Requirement.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出报告要求失败", zap.Error(err))
		return nil, 0, err
	}

	// 批量统计社团数，避免 N+1 查询
	ids := make([]string, 0, len(items))
	for _, r := range items {
		ids = append(ids, r.RequirementID)
	}
	counts, err := s.repo.ClubRequirement.CountByRequirements(ctx, ids)
	if err != nil {
		s.logger.Warn("批量统计社团数失败，回退为0", zap.Error(err))
		counts = map[string]int64{}
	}

	result := make([]dto.RequirementResponse, 0, len(items))
	for i := range items {
		result = append(result, *toRequirementResponse(&items[i], int(counts[items[i].RequirementID])))
	}
	return result, total, nil
}

func (s *requirementService) Delete(ctx context.Context, id, callerID string) error {
	if err := s.requireUniversity(ctx, callerID); err != nil {
		return err
	}
	if _, err := s.getRequirement(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.Submission.CountByRequirement(ctx, id)
	if err != nil {
		s.logger.Error("统计提交失败", zap.String("requirement_id", id), zap.Error(err))
		return err
	}
	if n > 0 {
		return ErrRequirementHasSubmissions
	}

	if err := s.repo.Requirement.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除报告要求失败", zap.String("requirement_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 目标社团 ──────────────────────

func (s *requirementService) AddClubs(ctx context.Context, id string, req *dto.AddClubsRequest, callerID string) ([]dto.ClubRequirementResponse, error) {
	if err := s.requireUniversity(ctx, callerID); err != nil {
		return nil, err
	}
	requirement, err := s.getRequirement(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ClubRequirement.ListClubIDs(ctx, id)
	if err != nil {
		s.logger.Error("查询已有社团失败", zap.String("requirement_id", id), zap.Error(err))
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, cid := range existing {
		have[cid] = true
	}
	var missing []string
	for _, cid := range dedupe(req.ClubIDs) {
		if !have[cid] {
			missing = append(missing, cid)
		}
	}

	clubs, err := s.loadClubs(ctx, missing)
	if err != nil {
		return nil, err
	}
	items := newClubRequirements(id, clubs, callerID)
	if err := s.repo.ClubRequirement.BatchCreate(ctx, items); err != nil {
		// 并发追加同一社团时命中 (requirement_id, club_id) 唯一索引
		if mapped := mapWriteError(err, ErrStaleVersion); mapped != err {
			return nil, mapped
		}
		s.logger.Error("追加社团要求失败", zap.String("requirement_id", id), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ClubRequirementResponse, 0, len(items))
	for i := range items {
		items[i].Requirement = requirement
		items[i].Club = &clubs[i]
		result = append(result, *toClubRequirementResponse(&items[i], nil, s.now()))
	}
	return result, nil
}

func (s *requirementService) RemoveClub(ctx context.Context, id, clubID, callerID string) error {
	if err := s.requireUniversity(ctx, callerID); err != nil {
		return err
	}

	item, err := s.repo.ClubRequirement.GetByRequirementAndClub(ctx, id, clubID)
	if err != nil {
		if isNotFound(err) {
			return ErrClubRequirementNotFound
		}
		s.logger.Error("查询社团要求失败", zap.Error(err))
		return err
	}

	n, err := s.repo.Submission.CountByClubRequirement(ctx, item.ClubRequirementID)
	if err != nil {
		s.logger.Error("统计提交失败", zap.Error(err))
		return err
	}
	if n > 0 {
		return ErrClubRequirementInUse
	}

	if err := s.repo.ClubRequirement.Delete(ctx, item.ClubRequirementID, callerID); err != nil {
		s.logger.Error("移除社团要求失败", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── AssignTeam ──────────────────────

func (s *requirementService) AssignTeam(ctx context.Context, clubRequirementID string, req *dto.AssignTeamRequest, callerID string) (*dto.ClubRequirementResponse, error) {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		item, err := tx.ClubRequirement.LockByID(ctx, clubRequirementID)
		if err != nil {
			if isNotFound(err) {
				return ErrClubRequirementNotFound
			}
			return err
		}

		ok, err := HasCapability(ctx, s.resolver, callerID, item.ClubID, workflow.CapClub)
		if err != nil {
			return err
		}
		if !ok {
			return ErrClubOfficerOnly
		}

		team, err := tx.Directory.GetTeam(ctx, req.TeamID)
		if err != nil {
			if isNotFound(err) {
				return ErrTeamNotInClub
			}
			return err
		}
		if team.ClubID != item.ClubID {
			return ErrTeamNotInClub
		}

		// 已有正式提交后不能改派，保护进行中的工作
		locked, err := tx.Submission.HasNonDraftByClubRequirement(ctx, item.ClubRequirementID)
		if err != nil {
			return err
		}
		if locked {
			return ErrDelegationLocked
		}

		item.AssignedTeamID = &team.TeamID
		item.UpdatedBy = &callerID
		if err := tx.ClubRequirement.Update(ctx, item); err != nil {
			return err
		}
		// 草稿随委派一起转到新小组
		moved, err := tx.Submission.ReassignDrafts(ctx, item.ClubRequirementID, item.AssignedTeamID)
		if err != nil {
			return err
		}
		if moved > 0 {
			s.logger.Info("草稿随委派转组",
				zap.String("club_requirement_id", item.ClubRequirementID),
				zap.String("team_id", team.TeamID),
				zap.Int64("drafts", moved),
			)
		}
		return nil
	})
	if err != nil {
		if mapped := mapWriteError(err, ErrStaleVersion); mapped != err {
			return nil, mapped
		}
		return nil, err
	}

	s.logger.Info("社团要求已委派小组",
		zap.String("club_requirement_id", clubRequirementID),
		zap.String("team_id", req.TeamID),
	)

	item, err := s.repo.ClubRequirement.GetByID(ctx, clubRequirementID)
	if err != nil {
		s.logger.Error("查询社团要求失败", zap.Error(err))
		return nil, err
	}
	return s.withProgress(ctx, item)
}

func (s *requirementService) withProgress(ctx context.Context, item *model.ClubRequirement) (*dto.ClubRequirementResponse, error) {
	latest, err := s.repo.Submission.LatestByClubRequirements(ctx, []string{item.ClubRequirementID})
	if err != nil {
		s.logger.Error("查询最新提交失败", zap.Error(err))
		return nil, err
	}
	var sub *model.Submission
	if l, ok := latest[item.ClubRequirementID]; ok {
		sub = &l
	}
	return toClubRequirementResponse(item, sub, s.now()), nil
}

// ────────────────────── 进度列表 ──────────────────────

func (s *requirementService) ListClubRequirements(ctx context.Context, requirementID string, req *dto.ClubRequirementListRequest, callerID string) ([]dto.ClubRequirementResponse, int64, error) {
	if err := s.requireUniversity(ctx, callerID); err != nil {
		return nil, 0, err
	}
	requirement, err := s.getRequirement(ctx, requirementID)
	if err != nil {
		return nil, 0, err
	}

	keyword := ""
	if textfold.Fold(req.Keyword) != "" {
		keyword = textfold.LikePattern(req.Keyword)
	}
	items, total, err := s.repo.ClubRequirement.ListByRequirement(ctx, requirementID, keyword, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出社团要求失败", zap.String("requirement_id", requirementID), zap.Error(err))
		return nil, 0, err
	}
	for i := range items {
		items[i].Requirement = requirement
	}

	result, err := s.toProgressList(ctx, items)
	return result, total, err
}

func (s *requirementService) ListByClub(ctx context.Context, clubID string, req *dto.PaginationRequest, callerID string) ([]dto.ClubRequirementResponse, int64, error) {
	caps, err := s.resolver.Capabilities(ctx, callerID, clubID)
	if err != nil {
		s.logger.Error("解析权限失败", zap.String("user_id", callerID), zap.Error(err))
		return nil, 0, err
	}
	if caps == 0 {
		return nil, 0, ErrNotClubMember
	}

	items, total, err := s.repo.ClubRequirement.ListByClub(ctx, clubID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出社团要求失败", zap.String("club_id", clubID), zap.Error(err))
		return nil, 0, err
	}

	result, err := s.toProgressList(ctx, items)
	return result, total, err
}

func (s *requirementService) toProgressList(ctx context.Context, items []model.ClubRequirement) ([]dto.ClubRequirementResponse, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ClubRequirementID)
	}
	latest, err := s.repo.Submission.LatestByClubRequirements(ctx, ids)
	if err != nil {
		s.logger.Error("查询最新提交失败", zap.Error(err))
		return nil, err
	}

	now := s.now()
	result := make([]dto.ClubRequirementResponse, 0, len(items))
	for i := range items {
		var sub *model.Submission
		if l, ok := latest[items[i].ClubRequirementID]; ok {
			sub = &l
		}
		result = append(result, *toClubRequirementResponse(&items[i], sub, now))
	}
	return result, nil
}

// ────────────────────── 转换 ──────────────────────

func toRequirementResponse(r *model.Requirement, clubCount int) *dto.RequirementResponse {
	return &dto.RequirementResponse{
		ID:          r.RequirementID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     dto.FormatTime(r.DueDate),
		Kind:        r.Kind,
		TemplateURL: r.TemplateURL,
		ClubCount:   clubCount,
		CreatedBy:   r.CreatedBy,
		Version:     r.Version,
		CreatedAt:   dto.FormatTime(r.CreatedAt),
		UpdatedAt:   dto.FormatTime(r.UpdatedAt),
	}
}

// isOverdue 截止时间已过且尚未获得校级通过
func isOverdue(r *model.Requirement, latest *model.Submission, now time.Time) bool {
	if r == nil || !r.IsOverdue(now) {
		return false
	}
	return latest == nil || latest.Status != workflow.StatusApprovedUniversity
}

func toClubRequirementResponse(item *model.ClubRequirement, latest *model.Submission, now time.Time) *dto.ClubRequirementResponse {
	resp := &dto.ClubRequirementResponse{
		ID:            item.ClubRequirementID,
		RequirementID: item.RequirementID,
		Club:          dto.ClubBrief{ID: item.ClubID},
		Note:          item.Note,
		Overdue:       isOverdue(item.Requirement, latest, now),
		UpdatedAt:     dto.FormatTime(item.UpdatedAt),
	}
	if item.Club != nil {
		resp.Club.Name = item.Club.Name
	}
	if item.Requirement != nil {
		resp.Requirement = toRequirementResponse(item.Requirement, 0)
	}
	if item.AssignedTeamID != nil {
		resp.AssignedTeam = &dto.TeamBrief{ID: *item.AssignedTeamID}
		if item.AssignedTeam != nil {
			resp.AssignedTeam.Name = item.AssignedTeam.Name
		}
	}
	if latest != nil {
		status := string(latest.Status)
		resp.LatestSubmissionID = &latest.SubmissionID
		resp.LatestSubmissionStatus = &status
	}
	return resp
}
