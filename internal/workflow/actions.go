package workflow

// Actions 某一操作者对某条提交当前可执行的操作。
// 列表、详情与引擎校验使用同一组判断，界面不会展示引擎会拒绝的按钮。
type Actions struct {
	CanEdit             bool `json:"can_edit"`
	CanDelete           bool `json:"can_delete"`
	CanSubmit           bool `json:"can_submit"`
	CanCancel           bool `json:"can_cancel"`
	CanResubmit         bool `json:"can_resubmit"`
	CanClubReview       bool `json:"can_club_review"`
	CanUniversityReview bool `json:"can_university_review"`
}

// CanEdit 修改正文：草稿由作者或社团干部修改；被驳回后仅作者可改
func CanEdit(s Subject, actor Actor) bool {
	if !s.Kind.Valid() || actor.UserID == "" {
		return false
	}
	isAuthor := actor.UserID == s.AuthorID
	switch s.Status {
	case StatusDraft:
		return isAuthor || actor.Caps.Has(CapClub)
	case StatusRejectedClub:
		return isAuthor
	case StatusRejectedUniversity:
		return isAuthor && s.MustResubmit && s.Kind.HasUniversityResubmission()
	default:
		return false
	}
}

// CanDelete 仅作者可删除自己的草稿
func CanDelete(s Subject, actor Actor) bool {
	return s.Kind.Valid() && s.Status == StatusDraft && actor.UserID != "" && actor.UserID == s.AuthorID
}

// CanCancel 作者在社团审核前撤回
func CanCancel(s Subject, actor Actor) bool {
	return Permits(s, EventCancel, actor)
}

// CanSubmit 作者提交草稿
func CanSubmit(s Subject, actor Actor) bool {
	return Permits(s, EventSubmit, actor)
}

// CanResubmit 作者修改后重新提交
func CanResubmit(s Subject, actor Actor) bool {
	return Permits(s, EventResubmit, actor)
}

// CanClubReview 社团级审核（通过与驳回权限一致）
func CanClubReview(s Subject, actor Actor) bool {
	return Permits(s, EventClubApprove, actor)
}

// CanUniversityReview 校级审核
func CanUniversityReview(s Subject, actor Actor) bool {
	return Permits(s, EventUniversityApprove, actor)
}

// ActionsFor 汇总全部可执行操作
func ActionsFor(s Subject, actor Actor) Actions {
	return Actions{
		CanEdit:             CanEdit(s, actor),
		CanDelete:           CanDelete(s, actor),
		CanSubmit:           CanSubmit(s, actor),
		CanCancel:           CanCancel(s, actor),
		CanResubmit:         CanResubmit(s, actor),
		CanClubReview:       CanClubReview(s, actor),
		CanUniversityReview: CanUniversityReview(s, actor),
	}
}
