package workflow

import (
	"fmt"
	"strings"

	pkgerrors "epu-club/backend/pkg/errors"
)

// Event 流转事件
type Event string

const (
	EventSubmit            Event = "submit"
	EventCancel            Event = "cancel"
	EventClubApprove       Event = "club_approve"
	EventClubReject        Event = "club_reject"
	EventResubmit          Event = "resubmit"
	EventUniversityApprove Event = "university_approve"
	EventUniversityReject  Event = "university_reject"
)

// guard 事件所需的操作者身份
type guard uint8

const (
	guardAuthor guard = iota
	guardClub
	guardUniversity
)

type transition struct {
	to    Status
	via   Status // 自动串联的中间状态，不落库
	guard guard
	// 仅在 must_resubmit=true 时允许
	needsMustResubmit bool
}

type key struct {
	from  Status
	event Event
}

type rule struct {
	from  Status
	event Event
	t     transition
}

// 两种文书共用的流转
var sharedRules = []rule{
	{StatusDraft, EventSubmit, transition{to: StatusPendingClub, guard: guardAuthor}},
	{StatusPendingClub, EventCancel, transition{to: StatusCanceled, guard: guardAuthor}},
	{StatusPendingClub, EventClubApprove, transition{to: StatusPendingUniversity, via: StatusApprovedClub, guard: guardClub}},
	{StatusPendingClub, EventClubReject, transition{to: StatusRejectedClub, guard: guardClub}},
	{StatusPendingUniversity, EventUniversityApprove, transition{to: StatusApprovedUniversity, guard: guardUniversity}},
	{StatusPendingUniversity, EventUniversityReject, transition{to: StatusRejectedUniversity, guard: guardUniversity}},
}

// 按类型追加的流转
var kindRules = map[Kind][]rule{
	KindPublicationRequest: {
		{StatusRejectedClub, EventResubmit, transition{to: StatusPendingClub, guard: guardAuthor}},
	},
	KindReport: {
		{StatusRejectedClub, EventResubmit, transition{to: StatusUpdatedPendingClub, guard: guardAuthor}},
		{StatusUpdatedPendingClub, EventClubApprove, transition{to: StatusPendingUniversity, via: StatusApprovedClub, guard: guardClub}},
		{StatusUpdatedPendingClub, EventClubReject, transition{to: StatusRejectedClub, guard: guardClub}},
		{StatusRejectedUniversity, EventResubmit, transition{
			to: StatusPendingUniversity, via: StatusResubmittedUniversity, guard: guardAuthor, needsMustResubmit: true,
		}},
	},
}

// tables 每种文书的完整流转表：共用部分 + 类型追加部分
var tables = func() map[Kind]map[key]transition {
	out := make(map[Kind]map[key]transition, len(kindRules))
	for kind, extra := range kindRules {
		table := make(map[key]transition, len(sharedRules)+len(extra))
		for _, r := range sharedRules {
			table[key{r.from, r.event}] = r.t
		}
		for _, r := range extra {
			table[key{r.from, r.event}] = r.t
		}
		out[kind] = table
	}
	return out
}()

func lookup(kind Kind, from Status, event Event) (transition, bool) {
	t, ok := tables[kind][key{from, event}]
	return t, ok
}

// Subject 状态机关心的提交字段
type Subject struct {
	Kind         Kind
	Status       Status
	AuthorID     string
	MustResubmit bool
}

// Input 事件携带的参数
type Input struct {
	Feedback     string
	MustResubmit bool
	// Payload 流转后生效的正文（submit 为当前正文，resubmit 为合并修改后的正文）
	Payload Payload
}

// ReviewStamp 审核时间戳的处理方式
type ReviewStamp uint8

const (
	ReviewKeep  ReviewStamp = iota
	ReviewSet               // 记录审核时间与审核人
	ReviewClear             // 重新进入审核，清空上一轮审核时间
)

// Outcome 一次合法流转需要落库的全部变化
type Outcome struct {
	Event        Event
	From         Status
	To           Status
	Via          Status
	Feedback     *string // nil 表示清空（仅驳回时非空）
	MustResubmit bool
	Review       ReviewStamp
	Submitted    bool // 记录提交时间
	Publish      bool // 生成发布物并回填 published_artifact_id
}

// TransitionError 当前状态不允许该事件
type TransitionError struct {
	Current Status
	Event   Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("当前状态 %s 不允许执行 %s", e.Current, e.Event)
}

func (e *TransitionError) Unwrap() error { return pkgerrors.ErrInvalidTransition }

// check 合法性与身份校验，Decide 与各 Can* 谓词共用
func check(s Subject, event Event, actor Actor) (transition, error) {
	if !s.Kind.Valid() {
		return transition{}, pkgerrors.New(pkgerrors.ErrValidation, fmt.Sprintf("未知的文书类型: %s", s.Kind))
	}
	if !s.Status.Known() || s.Status.IsTerminal() {
		return transition{}, &TransitionError{Current: s.Status, Event: event}
	}
	t, ok := lookup(s.Kind, s.Status, event)
	if !ok || (t.needsMustResubmit && !s.MustResubmit) {
		return transition{}, &TransitionError{Current: s.Status, Event: event}
	}

	switch t.guard {
	case guardAuthor:
		if actor.UserID == "" || actor.UserID != s.AuthorID {
			return transition{}, pkgerrors.New(pkgerrors.ErrForbidden, "仅作者本人可执行此操作")
		}
	case guardClub:
		if !actor.Caps.Has(CapClub) {
			return transition{}, pkgerrors.New(pkgerrors.ErrForbidden, "需要社团干部权限")
		}
	case guardUniversity:
		if !actor.Caps.Has(CapUniversity) {
			return transition{}, pkgerrors.New(pkgerrors.ErrForbidden, "需要学校审核权限")
		}
	}
	return t, nil
}

// Decide 计算下一状态；失败时不产生任何副作用
func Decide(s Subject, event Event, actor Actor, in Input) (Outcome, error) {
	t, err := check(s, event, actor)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Event: event,
		From:  s.Status,
		To:    t.to,
		Via:   t.via,
	}

	switch event {
	case EventSubmit, EventResubmit:
		if err := s.Kind.ValidatePayload(in.Payload); err != nil {
			return Outcome{}, err
		}
		out.Submitted = true
		out.Review = ReviewClear
	case EventClubReject, EventUniversityReject:
		feedback := strings.TrimSpace(in.Feedback)
		if feedback == "" {
			return Outcome{}, pkgerrors.New(pkgerrors.ErrValidation, "驳回时必须填写审核意见")
		}
		out.Feedback = &feedback
		out.Review = ReviewSet
		if event == EventUniversityReject {
			out.MustResubmit = in.MustResubmit && s.Kind.HasUniversityResubmission()
		}
	case EventClubApprove:
		out.Review = ReviewSet
	case EventUniversityApprove:
		out.Review = ReviewSet
		out.Publish = true
	case EventCancel:
		out.Review = ReviewKeep
	}

	return out, nil
}

// Permits 事件在当前状态下对该操作者是否可执行（不校验输入）
func Permits(s Subject, event Event, actor Actor) bool {
	_, err := check(s, event, actor)
	return err == nil
}
