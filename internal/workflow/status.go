// Package workflow 实现报告与新闻申请共用的多级审批状态机。
//
// 包内只做纯计算：给定当前状态、事件与操作者能力，算出下一状态或返回分类错误。
// 持久化、并发控制与通知由 service 层负责。
package workflow

// Kind 文书类型
type Kind string

const (
	KindReport             Kind = "REPORT"
	KindPublicationRequest Kind = "PUBLICATION_REQUEST"
)

// Valid 是否为已知文书类型
func (k Kind) Valid() bool {
	return k == KindReport || k == KindPublicationRequest
}

// HasUniversityResubmission 该类型是否支持校级驳回后的重新提交
func (k Kind) HasUniversityResubmission() bool {
	return k == KindReport
}

// Status 提交状态，取值为对外稳定的字符串
type Status string

const (
	StatusDraft                 Status = "DRAFT"
	StatusPendingClub           Status = "PENDING_CLUB"
	StatusApprovedClub          Status = "APPROVED_CLUB"
	StatusRejectedClub          Status = "REJECTED_CLUB"
	StatusUpdatedPendingClub    Status = "UPDATED_PENDING_CLUB"
	StatusPendingUniversity     Status = "PENDING_UNIVERSITY"
	StatusApprovedUniversity    Status = "APPROVED_UNIVERSITY"
	StatusRejectedUniversity    Status = "REJECTED_UNIVERSITY"
	StatusResubmittedUniversity Status = "RESUBMITTED_UNIVERSITY"
	StatusCanceled              Status = "CANCELED"
)

var knownStatuses = map[Status]bool{
	StatusDraft:                 true,
	StatusPendingClub:           true,
	StatusApprovedClub:          true,
	StatusRejectedClub:          true,
	StatusUpdatedPendingClub:    true,
	StatusPendingUniversity:     true,
	StatusApprovedUniversity:    true,
	StatusRejectedUniversity:    true,
	StatusResubmittedUniversity: true,
	StatusCanceled:              true,
}

// Known 未知状态（更新版本新增的取值）只读展示，不可操作
func (s Status) Known() bool {
	return knownStatuses[s]
}

// IsTerminal 正式终态
func (s Status) IsTerminal() bool {
	return s == StatusApprovedUniversity || s == StatusCanceled
}

// IsOpen 是否计入「同一社团要求仅一条未完结提交」的约束。
// 校级驳回且未要求重交视为放弃，不再占用名额。
func IsOpen(s Status, mustResubmit bool) bool {
	if s.IsTerminal() {
		return false
	}
	if s == StatusRejectedUniversity && !mustResubmit {
		return false
	}
	return s.Known()
}

// ClosedStatuses 不计入未完结约束的状态（不含 REJECTED_UNIVERSITY，需结合 must_resubmit 判断）
func ClosedStatuses() []Status {
	return []Status{StatusApprovedUniversity, StatusCanceled}
}

// Statuses 全部已知状态，按流程顺序
func Statuses() []Status {
	return []Status{
		StatusDraft,
		StatusPendingClub,
		StatusApprovedClub,
		StatusRejectedClub,
		StatusUpdatedPendingClub,
		StatusPendingUniversity,
		StatusApprovedUniversity,
		StatusRejectedUniversity,
		StatusResubmittedUniversity,
		StatusCanceled,
	}
}
