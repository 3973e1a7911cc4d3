package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"epu-club/backend/internal/dto"
	"epu-club/backend/internal/model"
	"epu-club/backend/internal/repository"
	"epu-club/backend/internal/workflow"
	pkgerrors "epu-club/backend/pkg/errors"
	"epu-club/backend/pkg/textfold"
)

// SubmissionService 报告与新闻申请的提交及审批业务接口
type SubmissionService interface {
	Create(ctx context.Context, req *dto.CreateSubmissionRequest, callerID string) (*dto.SubmissionResponse, error)
	GetByID(ctx context.Context, id, callerID string) (*dto.SubmissionResponse, error)
	List(ctx context.Context, req *dto.SubmissionListRequest, callerID string) ([]dto.SubmissionResponse, int64, error)
	History(ctx context.Context, id, callerID string) ([]dto.TransitionResponse, error)
	UpdateDraft(ctx context.Context, id string, req *dto.UpdateDraftRequest, callerID string) (*dto.SubmissionResponse, error)
	DeleteDraft(ctx context.Context, id, callerID string) error

	Submit(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error)
	Cancel(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error)
	ClubApprove(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error)
	ClubReject(ctx context.Context, id string, req *dto.RejectRequest, callerID string) (*dto.SubmissionResponse, error)
	UniversityApprove(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error)
	UniversityReject(ctx context.Context, id string, req *dto.RejectRequest, callerID string) (*dto.SubmissionResponse, error)
	Resubmit(ctx context.Context, id string, req *dto.ResubmitRequest, callerID string) (*dto.SubmissionResponse, error)
}

type submissionService struct {
	repo       *repository.Repository
	resolver   CapabilityResolver
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(repo *repository.Repository, resolver CapabilityResolver, dispatcher Dispatcher, logger *zap.Logger) SubmissionService {
	return &submissionService{
		repo:       repo,
		resolver:   resolver,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// actor 针对目标社团解析操作者；权限只在服务端解析，不信任客户端声明
func (s *submissionService) actor(ctx context.Context, userID, clubID string) (workflow.Actor, error) {
	caps, err := s.resolver.Capabilities(ctx, userID, clubID)
	if err != nil {
		s.logger.Error("解析权限失败", zap.String("user_id", userID), zap.String("club_id", clubID), zap.Error(err))
		return workflow.Actor{}, err
	}
	return workflow.Actor{UserID: userID, Caps: caps}, nil
}

// teamIDs 用户在社团内所属的小组
func (s *submissionService) teamIDs(ctx context.Context, userID, clubID string) ([]string, error) {
	members, err := s.repo.Directory.ListMemberships(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.TeamID != nil {
			ids = append(ids, *m.TeamID)
		}
	}
	return ids, nil
}

// visible 可见范围：学校（他人草稿除外）、本社团干部、作者本人、同组成员
func (s *submissionService) visible(ctx context.Context, sub *model.Submission, actor workflow.Actor) (bool, error) {
	if sub.AuthorID == actor.UserID {
		return true, nil
	}
	if actor.Caps.Has(workflow.CapClub) {
		return true, nil
	}
	if actor.Caps.Has(workflow.CapUniversity) && sub.Status != workflow.StatusDraft {
		return true, nil
	}
	if actor.Caps.Has(workflow.CapTeam) && sub.TeamID != nil {
		teams, err := s.teamIDs(ctx, actor.UserID, sub.ClubID)
		if err != nil {
			return false, err
		}
		for _, t := range teams {
			if t == *sub.TeamID {
				return true, nil
			}
		}
	}
	return false, nil
}

// load 读取提交并解析操作者；不可见时返回 NotFound
func (s *submissionService) load(ctx context.Context, repo *repository.Repository, id, callerID string) (*model.Submission, workflow.Actor, error) {
	sub, err := repo.Submission.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, workflow.Actor{}, ErrSubmissionNotFound
		}
		s.logger.Error("查询提交失败", zap.String("submission_id", id), zap.Error(err))
		return nil, workflow.Actor{}, err
	}
	actor, err := s.actor(ctx, callerID, sub.ClubID)
	if err != nil {
		return nil, workflow.Actor{}, err
	}
	ok, err := s.visible(ctx, sub, actor)
	if err != nil {
		s.logger.Error("判断可见性失败", zap.String("submission_id", id), zap.Error(err))
		return nil, workflow.Actor{}, err
	}
	if !ok {
		return nil, workflow.Actor{}, ErrSubmissionNotFound
	}
	return sub, actor, nil
}

// ────────────────────── Create ──────────────────────

func (s *submissionService) Create(ctx context.Context, req *dto.CreateSubmissionRequest, callerID string) (*dto.SubmissionResponse, error) {
	kind := workflow.Kind(req.Kind)
	if !kind.Valid() {
		return nil, pkgerrors.New(pkgerrors.ErrValidation, "未知的提交类型")
	}
	var payload workflow.Payload
	if !req.SubmissionFields.Empty() {
		p, ok := req.SubmissionFields.Payload(kind)
		if !ok {
			return nil, ErrPayloadKindMismatch
		}
		payload = p
	}

	sub := &model.Submission{
		Kind:     kind,
		AuthorID: callerID,
		Status:   workflow.StatusDraft,
	}
	sub.SetPayload(payload)
	sub.SearchText = submissionSearchText(sub)
	sub.CreatedBy = &callerID
	sub.UpdatedBy = &callerID

	var (
		actor workflow.Actor
		err   error
	)
	switch kind {
	case workflow.KindReport:
		actor, err = s.createReport(ctx, req, sub)
	case workflow.KindPublicationRequest:
		actor, err = s.createPublicationRequest(ctx, req, sub)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("提交草稿已创建",
		zap.String("submission_id", sub.SubmissionID),
		zap.String("kind", string(kind)),
		zap.String("club_id", sub.ClubID),
	)
	return toSubmissionResponse(sub, actor), nil
}

// createReport 报告：在社团要求行锁内复查「一条未完结提交」后创建
func (s *submissionService) createReport(ctx context.Context, req *dto.CreateSubmissionRequest, sub *model.Submission) (workflow.Actor, error) {
	if req.ClubRequirementID == nil || *req.ClubRequirementID == "" {
		return workflow.Actor{}, ErrClubRequirementRequired
	}

	var actor workflow.Actor
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		cr, err := tx.ClubRequirement.LockByID(ctx, *req.ClubRequirementID)
		if err != nil {
			if isNotFound(err) {
				return ErrClubRequirementNotFound
			}
			return err
		}
		if req.ClubID != nil && *req.ClubID != cr.ClubID {
			return ErrClubMismatch
		}

		actor, err = s.actor(ctx, sub.AuthorID, cr.ClubID)
		if err != nil {
			return err
		}
		if !actor.Caps.Has(workflow.CapTeam) {
			return ErrNotClubMember
		}

		teamID := req.TeamID
		if cr.AssignedTeamID != nil {
			// 已委派时提交归属被委派小组；非干部须是该小组成员
			teamID = cr.AssignedTeamID
			if !actor.Caps.Has(workflow.CapClub) {
				if err := s.requireTeamMember(ctx, tx, sub.AuthorID, cr.ClubID, *teamID); err != nil {
					return err
				}
			}
		} else if teamID != nil {
			if err := s.requireTeamInClub(ctx, tx, *teamID, cr.ClubID); err != nil {
				return err
			}
		}

		open, err := tx.Submission.CountOpenByClubRequirement(ctx, cr.ClubRequirementID)
		if err != nil {
			return err
		}
		if open > 0 {
			return ErrOpenSubmissionExists
		}

		sub.ClubID = cr.ClubID
		sub.TeamID = teamID
		sub.ClubRequirementID = &cr.ClubRequirementID
		return tx.Submission.Create(ctx, sub)
	})
	if err != nil {
		if mapped := mapWriteError(err, ErrOpenSubmissionExists); mapped != err {
			return workflow.Actor{}, mapped
		}
		if !isDomainError(err) {
			s.logger.Error("创建报告失败", zap.Error(err))
		}
		return workflow.Actor{}, err
	}
	return actor, nil
}

// createPublicationRequest 新闻申请：每位作者在同一社团/小组下只保留一份草稿
func (s *submissionService) createPublicationRequest(ctx context.Context, req *dto.CreateSubmissionRequest, sub *model.Submission) (workflow.Actor, error) {
	if req.ClubRequirementID != nil {
		return workflow.Actor{}, pkgerrors.New(pkgerrors.ErrValidation, "新闻申请不能关联社团要求")
	}
	if req.ClubID == nil || *req.ClubID == "" {
		return workflow.Actor{}, ErrClubRequired
	}
	clubID := *req.ClubID

	actor, err := s.actor(ctx, sub.AuthorID, clubID)
	if err != nil {
		return workflow.Actor{}, err
	}
	if !actor.Caps.Has(workflow.CapTeam) {
		return workflow.Actor{}, ErrNotClubMember
	}
	if req.TeamID != nil {
		if err := s.requireTeamInClub(ctx, s.repo, *req.TeamID, clubID); err != nil {
			return workflow.Actor{}, err
		}
		if !actor.Caps.Has(workflow.CapClub) {
			if err := s.requireTeamMember(ctx, s.repo, sub.AuthorID, clubID, *req.TeamID); err != nil {
				return workflow.Actor{}, err
			}
		}
	}

	taken, err := s.repo.Submission.HasPublicationDraft(ctx, sub.AuthorID, clubID, req.TeamID)
	if err != nil {
		s.logger.Error("查询草稿失败", zap.Error(err))
		return workflow.Actor{}, err
	}
	if taken {
		return workflow.Actor{}, ErrDraftSlotTaken
	}

	sub.ClubID = clubID
	sub.TeamID = req.TeamID
	if err := s.repo.Submission.Create(ctx, sub); err != nil {
		if mapped := mapWriteError(err, ErrDraftSlotTaken); mapped != err {
			return workflow.Actor{}, mapped
		}
		s.logger.Error("创建新闻申请失败", zap.Error(err))
		return workflow.Actor{}, err
	}
	return actor, nil
}

func (s *submissionService) requireTeamInClub(ctx context.Context, repo *repository.Repository, teamID, clubID string) error {
	team, err := repo.Directory.GetTeam(ctx, teamID)
	if err != nil {
		if isNotFound(err) {
			return ErrTeamNotInClub
		}
		return err
	}
	if team.ClubID != clubID {
		return ErrTeamNotInClub
	}
	return nil
}

func (s *submissionService) requireTeamMember(ctx context.Context, repo *repository.Repository, userID, clubID, teamID string) error {
	members, err := repo.Directory.ListMemberships(ctx, userID, clubID)
	if err != nil {
		return err
	}
	for _, m := range members {
		if m.TeamID != nil && *m.TeamID == teamID {
			return nil
		}
	}
	return ErrNotTeamMember
}

// ────────────────────── 查询 ──────────────────────

func (s *submissionService) GetByID(ctx context.Context, id, callerID string) (*dto.SubmissionResponse, error) {
	sub, actor, err := s.load(ctx, s.repo, id, callerID)
	if err != nil {
		return nil, err
	}
	return toSubmissionResponse(sub, actor), nil
}

func (s *submissionService) History(ctx context.Context, id, callerID string) ([]dto.TransitionResponse, error) {
	if _, _, err := s.load(ctx, s.repo, id, callerID); err != nil {
		return nil, err
	}
	items, err := s.repo.Transition.ListBySubmission(ctx, id)
	if err != nil {
		s.logger.Error("查询流转日志失败", zap.String("submission_id", id), zap.Error(err))
		return nil, err
	}
	result := make([]dto.TransitionResponse, 0, len(items))
	for i := range items {
		result = append(result, toTransitionResponse(&items[i]))
	}
	return result, nil
}

func (s *submissionService) List(ctx context.Context, req *dto.SubmissionListRequest, callerID string) ([]dto.SubmissionResponse, int64, error) {
	filter := repository.SubmissionFilter{
		ClubID:        req.ClubID,
		TeamID:        req.TeamID,
		RequirementID: req.RequirementID,
		AuthorID:      req.AuthorID,
		Status:        req.Status,
		Kind:          req.Kind,
	}
	if textfold.Fold(req.Keyword) != "" {
		filter.Keyword = textfold.LikePattern(req.Keyword)
	}

	// 可见范围：指定社团时按该社团的权限；未指定时只有学校工作人员可跨社团查看
	actor, err := s.actor(ctx, callerID, req.ClubID)
	if err != nil {
		return nil, 0, err
	}
	scope := repository.SubmissionScope{ViewerID: callerID}
	switch {
	case req.ClubID != "" && actor.Caps.Has(workflow.CapClub):
		scope.ClubWide = true
	case actor.Caps.Has(workflow.CapUniversity):
		scope.AllButDrafts = true
	case req.ClubID != "" && actor.Caps.Has(workflow.CapTeam):
		teams, err := s.teamIDs(ctx, callerID, req.ClubID)
		if err != nil {
			s.logger.Error("查询小组失败", zap.Error(err))
			return nil, 0, err
		}
		scope.TeamIDs = teams
	}
	filter.Scope = scope

	items, total, err := s.repo.Submission.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出提交失败", zap.Error(err))
		return nil, 0, err
	}

	// 按社团缓存权限，保证列表与详情的可执行操作一致
	actors := map[string]workflow.Actor{req.ClubID: actor}
	result := make([]dto.SubmissionResponse, 0, len(items))
	for i := range items {
		a, ok := actors[items[i].ClubID]
		if !ok {
			a, err = s.actor(ctx, callerID, items[i].ClubID)
			if err != nil {
				return nil, 0, err
			}
			actors[items[i].ClubID] = a
		}
		result = append(result, *toSubmissionResponse(&items[i], a))
	}
	return result, total, nil
}

// ────────────────────── 草稿编辑 ──────────────────────

func (s *submissionService) UpdateDraft(ctx context.Context, id string, req *dto.UpdateDraftRequest, callerID string) (*dto.SubmissionResponse, error) {
	sub, actor, err := s.load(ctx, s.repo, id, callerID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(req.ExpectedVersion, sub.Version); err != nil {
		return nil, err
	}
	if !workflow.CanEdit(sub.Subject(), actor) {
		if editableStatus(sub) {
			return nil, ErrNotAuthor
		}
		return nil, &workflow.TransitionError{Current: sub.Status, Event: "edit"}
	}

	payload, ok := req.SubmissionFields.Payload(sub.Kind)
	if !ok {
		return nil, ErrPayloadKindMismatch
	}
	sub.SetPayload(payload)
	sub.SearchText = submissionSearchText(sub)
	sub.UpdatedBy = &callerID

	if err := s.repo.Submission.Update(ctx, sub, sub.Status); err != nil {
		if mapped := mapWriteError(err, ErrStaleVersion); mapped != err {
			return nil, mapped
		}
		s.logger.Error("更新草稿失败", zap.String("submission_id", id), zap.Error(err))
		return nil, err
	}
	return toSubmissionResponse(sub, actor), nil
}

// editableStatus 正文在该状态下对某些人可编辑
func editableStatus(sub *model.Submission) bool {
	switch sub.Status {
	case workflow.StatusDraft, workflow.StatusRejectedClub:
		return true
	case workflow.StatusRejectedUniversity:
		return sub.MustResubmit && sub.Kind.HasUniversityResubmission()
	}
	return false
}

func (s *submissionService) DeleteDraft(ctx context.Context, id, callerID string) error {
	sub, actor, err := s.load(ctx, s.repo, id, callerID)
	if err != nil {
		return err
	}
	if !workflow.CanDelete(sub.Subject(), actor) {
		if sub.Status != workflow.StatusDraft {
			// 离开草稿后永不删除
			return &workflow.TransitionError{Current: sub.Status, Event: "delete"}
		}
		return ErrNotAuthor
	}
	if err := s.repo.Submission.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除草稿失败", zap.String("submission_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 流转 ──────────────────────

func (s *submissionService) Submit(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error) {
	return s.transition(ctx, id, callerID, workflow.EventSubmit, req.ExpectedVersion, workflow.Input{}, nil)
}

func (s *submissionService) Cancel(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error) {
	return s.transition(ctx, id, callerID, workflow.EventCancel, req.ExpectedVersion, workflow.Input{}, nil)
}

func (s *submissionService) ClubApprove(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error) {
	return s.transition(ctx, id, callerID, workflow.EventClubApprove, req.ExpectedVersion, workflow.Input{}, nil)
}

func (s *submissionService) ClubReject(ctx context.Context, id string, req *dto.RejectRequest, callerID string) (*dto.SubmissionResponse, error) {
	return s.transition(ctx, id, callerID, workflow.EventClubReject, req.ExpectedVersion,
		workflow.Input{Feedback: req.Feedback}, nil)
}

func (s *submissionService) UniversityApprove(ctx context.Context, id string, req *dto.TransitionRequest, callerID string) (*dto.SubmissionResponse, error) {
	return s.transition(ctx, id, callerID, workflow.EventUniversityApprove, req.ExpectedVersion, workflow.Input{}, nil)
}

func (s *submissionService) UniversityReject(ctx context.Context, id string, req *dto.RejectRequest, callerID string) (*dto.SubmissionResponse, error) {
	return s.transition(ctx, id, callerID, workflow.EventUniversityReject, req.ExpectedVersion,
		workflow.Input{Feedback: req.Feedback, MustResubmit: req.MustResubmit}, nil)
}

func (s *submissionService) Resubmit(ctx context.Context, id string, req *dto.ResubmitRequest, callerID string) (*dto.SubmissionResponse, error) {
	return s.transition(ctx, id, callerID, workflow.EventResubmit, req.ExpectedVersion, workflow.Input{}, &req.SubmissionFields)
}

// transition 读取 → 状态机判定 → 乐观锁写入 → 记日志 →（校级通过时）生成发布物，
// 全部在同一事务内完成；提交成功后再投递通知
func (s *submissionService) transition(
	ctx context.Context,
	id, callerID string,
	event workflow.Event,
	expectedVersion *int,
	in workflow.Input,
	fields *dto.SubmissionFields,
) (*dto.SubmissionResponse, error) {
	var (
		sub   *model.Submission
		actor workflow.Actor
		evt   TransitionEvent
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		sub, actor, err = s.load(ctx, tx, id, callerID)
		if err != nil {
			return err
		}
		if event == workflow.EventSubmit && sub.ClubRequirementID != nil {
			// 与改派互斥：先锁社团要求，再按加锁后的数据重读
			cr, err := tx.ClubRequirement.LockByID(ctx, *sub.ClubRequirementID)
			if err != nil {
				return err
			}
			if sub, actor, err = s.load(ctx, tx, id, callerID); err != nil {
				return err
			}
			if cr.AssignedTeamID != nil {
				sub.TeamID = cr.AssignedTeamID
			}
		}
		if err := checkVersion(expectedVersion, sub.Version); err != nil {
			return err
		}

		in.Payload = sub.Payload()
		if fields != nil && !fields.Empty() {
			p, ok := fields.Payload(sub.Kind)
			if !ok {
				return ErrPayloadKindMismatch
			}
			in.Payload = p
		}

		out, err := workflow.Decide(sub.Subject(), event, actor, in)
		if err != nil {
			return err
		}

		now := s.now()
		applyOutcome(sub, out, in.Payload, callerID, now)

		if out.Publish {
			pub := newPublication(sub, callerID, now)
			if err := tx.Publication.Create(ctx, pub); err != nil {
				return err
			}
			sub.PublishedArtifactID = &pub.PublicationID
		}

		if err := tx.Submission.Update(ctx, sub, out.From); err != nil {
			return err
		}

		record := &model.SubmissionTransition{
			SubmissionID: sub.SubmissionID,
			Event:        out.Event,
			FromStatus:   out.From,
			ToStatus:     out.To,
			ActorID:      callerID,
			Feedback:     out.Feedback,
			CreatedAt:    now,
		}
		if out.Via != "" {
			via := out.Via
			record.ViaStatus = &via
		}
		if err := tx.Transition.Append(ctx, record); err != nil {
			return err
		}

		evt = TransitionEvent{
			EventID:      uuid.NewString(),
			SubmissionID: sub.SubmissionID,
			Seq:          record.Seq,
			Kind:         sub.Kind,
			Title:        sub.Title,
			ClubID:       sub.ClubID,
			TeamID:       sub.TeamID,
			AuthorID:     sub.AuthorID,
			Event:        out.Event,
			From:         out.From,
			To:           out.To,
			Via:          out.Via,
			ActorID:      callerID,
			Feedback:     out.Feedback,
			Timestamp:    now,
		}
		return nil
	})
	if err != nil {
		if mapped := mapWriteError(err, ErrStaleVersion); mapped != err {
			return nil, mapped
		}
		if !isDomainError(err) {
			s.logger.Error("提交流转失败",
				zap.String("submission_id", id),
				zap.String("event", string(event)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("提交状态流转",
		zap.String("submission_id", evt.SubmissionID),
		zap.String("event", string(evt.Event)),
		zap.String("from", string(evt.From)),
		zap.String("to", string(evt.To)),
		zap.String("actor_id", callerID),
	)
	s.dispatcher.Dispatch(evt)

	return toSubmissionResponse(sub, actor), nil
}

// applyOutcome 将状态机结果写入提交（审核意见、审核时间、提交时间）
func applyOutcome(sub *model.Submission, out workflow.Outcome, payload workflow.Payload, callerID string, now time.Time) {
	if out.Event == workflow.EventResubmit {
		sub.SetPayload(payload)
		sub.SearchText = submissionSearchText(sub)
	}

	sub.Status = out.To
	sub.MustResubmit = out.MustResubmit
	sub.ReviewerFeedback = out.Feedback

	switch out.Review {
	case workflow.ReviewSet:
		sub.ReviewedDate = &now
		sub.ReviewerID = &callerID
	case workflow.ReviewClear:
		sub.ReviewedDate = nil
		sub.ReviewerID = nil
	}
	if out.Submitted {
		sub.SubmittedDate = &now
	}
	sub.UpdatedBy = &callerID
}

func newPublication(sub *model.Submission, callerID string, now time.Time) *model.Publication {
	return &model.Publication{
		PublicationID: uuid.NewString(),
		SubmissionID:  sub.SubmissionID,
		Kind:          sub.Kind,
		ClubID:        sub.ClubID,
		TeamID:        sub.TeamID,
		Title:         sub.Title,
		Content:       sub.Content,
		Category:      sub.Category,
		ThumbnailURL:  sub.ThumbnailURL,
		FileURL:       sub.FileURL,
		PublishedBy:   callerID,
		PublishedAt:   now,
	}
}

// isDomainError 业务分类错误无需记录 Error 日志
func isDomainError(err error) bool {
	for _, kind := range []error{
		pkgerrors.ErrValidation,
		pkgerrors.ErrForbidden,
		pkgerrors.ErrInvalidTransition,
		pkgerrors.ErrConflict,
		pkgerrors.ErrNotFound,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// ────────────────────── 转换 ──────────────────────

func submissionSearchText(sub *model.Submission) string {
	return textfold.Join(sub.Title, model.StrVal(sub.Category))
}

func toSubmissionResponse(sub *model.Submission, actor workflow.Actor) *dto.SubmissionResponse {
	resp := &dto.SubmissionResponse{
		ID:                  sub.SubmissionID,
		Kind:                string(sub.Kind),
		AuthorID:            sub.AuthorID,
		ClubID:              sub.ClubID,
		TeamID:              sub.TeamID,
		ClubRequirementID:   sub.ClubRequirementID,
		Status:              string(sub.Status),
		SubmittedDate:       dto.FormatTimePtr(sub.SubmittedDate),
		ReviewedDate:        dto.FormatTimePtr(sub.ReviewedDate),
		ReviewerID:          sub.ReviewerID,
		ReviewerFeedback:    sub.ReviewerFeedback,
		MustResubmit:        sub.MustResubmit,
		PublishedArtifactID: sub.PublishedArtifactID,
		Actions:             workflow.ActionsFor(sub.Subject(), actor),
		Version:             sub.Version,
		CreatedAt:           dto.FormatTime(sub.CreatedAt),
		UpdatedAt:           dto.FormatTime(sub.UpdatedAt),
	}
	if sub.Club != nil {
		resp.Club = &dto.ClubBrief{ID: sub.Club.ClubID, Name: sub.Club.Name}
	}
	switch sub.Kind {
	case workflow.KindReport:
		resp.Report = &dto.ReportFields{
			ReportTitle: sub.Title,
			Content:     sub.Content,
			FileURL:     model.StrVal(sub.FileURL),
		}
	case workflow.KindPublicationRequest:
		resp.Publication = &dto.PublicationFields{
			Title:        sub.Title,
			Content:      sub.Content,
			ThumbnailURL: model.StrVal(sub.ThumbnailURL),
			Category:     model.StrVal(sub.Category),
		}
	}
	return resp
}

func toTransitionResponse(t *model.SubmissionTransition) dto.TransitionResponse {
	resp := dto.TransitionResponse{
		Seq:        t.Seq,
		Event:      string(t.Event),
		FromStatus: string(t.FromStatus),
		ToStatus:   string(t.ToStatus),
		ActorID:    t.ActorID,
		Feedback:   t.Feedback,
		CreatedAt:  dto.FormatTime(t.CreatedAt),
	}
	if t.ViaStatus != nil {
		via := string(*t.ViaStatus)
		resp.ViaStatus = &via
	}
	return resp
}
