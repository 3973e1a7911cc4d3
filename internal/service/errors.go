package service

import (
	"errors"

	"gorm.io/gorm"

	pkgerrors "epu-club/backend/pkg/errors"
)

// ── 审批流程业务错误 ──
// 均归属于 pkg/errors 的分类，Handler 通过 errors.Is 分类映射状态码

var (
	ErrRequirementNotFound     = pkgerrors.New(pkgerrors.ErrNotFound, "报告要求不存在")
	ErrClubRequirementNotFound = pkgerrors.New(pkgerrors.ErrNotFound, "社团要求不存在")
	ErrSubmissionNotFound      = pkgerrors.New(pkgerrors.ErrNotFound, "提交不存在")
	ErrNotificationNotFound    = pkgerrors.New(pkgerrors.ErrNotFound, "通知不存在")

	ErrDueDateNotFuture        = pkgerrors.New(pkgerrors.ErrValidation, "截止时间必须晚于当前时间")
	ErrInvalidRequirementKind  = pkgerrors.New(pkgerrors.ErrValidation, "报告要求类型无效")
	ErrUnknownClub             = pkgerrors.New(pkgerrors.ErrValidation, "目标社团不存在")
	ErrTeamNotInClub           = pkgerrors.New(pkgerrors.ErrValidation, "小组不属于该社团")
	ErrClubRequirementRequired = pkgerrors.New(pkgerrors.ErrValidation, "报告必须关联社团要求")
	ErrClubRequired            = pkgerrors.New(pkgerrors.ErrValidation, "新闻申请必须指定社团")
	ErrClubMismatch            = pkgerrors.New(pkgerrors.ErrValidation, "社团与社团要求不一致")
	ErrPayloadKindMismatch     = pkgerrors.New(pkgerrors.ErrValidation, "正文类型与提交类型不一致")

	ErrUniversityOnly  = pkgerrors.New(pkgerrors.ErrForbidden, "仅学校工作人员可执行此操作")
	ErrClubOfficerOnly = pkgerrors.New(pkgerrors.ErrForbidden, "仅社团干部可执行此操作")
	ErrNotClubMember   = pkgerrors.New(pkgerrors.ErrForbidden, "不是该社团成员")
	ErrNotTeamMember   = pkgerrors.New(pkgerrors.ErrForbidden, "不是被委派小组的成员")
	ErrNotAuthor       = pkgerrors.New(pkgerrors.ErrForbidden, "仅作者本人可执行此操作")

	ErrStaleVersion              = pkgerrors.New(pkgerrors.ErrConflict, "数据已被其他操作修改，请刷新后重试")
	ErrOpenSubmissionExists      = pkgerrors.New(pkgerrors.ErrConflict, "该社团要求已有未完结的提交")
	ErrDraftSlotTaken            = pkgerrors.New(pkgerrors.ErrConflict, "已存在同一社团/小组下的新闻申请草稿")
	ErrRequirementKindLocked     = pkgerrors.New(pkgerrors.ErrConflict, "已有社团正式提交，报告要求类型不可修改")
	ErrRequirementHasSubmissions = pkgerrors.New(pkgerrors.ErrConflict, "报告要求下已有提交，无法删除")
	ErrClubRequirementInUse      = pkgerrors.New(pkgerrors.ErrConflict, "社团要求下已有提交，无法移除")
	ErrDelegationLocked          = pkgerrors.New(pkgerrors.ErrConflict, "已有正式提交，不能重新委派小组")
)

// isNotFound 记录不存在
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// mapWriteError 将乐观锁冲突与唯一约束冲突统一映射为 Conflict
func mapWriteError(err error, onDuplicate error) error {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		return ErrStaleVersion
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return onDuplicate
	}
	return err
}

// checkVersion 客户端携带的版本号与当前版本不一致时视为冲突
func checkVersion(expected *int, current int) error {
	if expected != nil && *expected != current {
		return ErrStaleVersion
	}
	return nil
}
