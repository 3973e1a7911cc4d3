package errors

import "errors"

// ── 审批流程错误分类 ──
//
// 业务层的具体错误通过 fmt.Errorf("%w") 包装以下分类错误，
// Handler 层只需 errors.Is 判断分类即可映射 HTTP 状态码。

var (
	// ErrValidation 输入校验失败：缺少必填字段、截止日期已过、驳回意见为空等
	ErrValidation = errors.New("参数校验失败")
	// ErrForbidden 调用者不具备该操作所需的权限等级
	ErrForbidden = errors.New("无权限执行此操作")
	// ErrInvalidTransition 当前状态下不允许该流转（含终态）
	ErrInvalidTransition = errors.New("当前状态不允许此操作")
	// ErrConflict 并发写冲突或重复的未完结提交
	ErrConflict = errors.New("数据冲突，请刷新后重试")
	// ErrNotFound 记录不存在或不在调用者的可见范围内
	ErrNotFound = errors.New("记录不存在")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = &wrapped{msg: "数据已被其他操作修改，请刷新后重试", kind: ErrConflict}

// wrapped 带分类的错误，errors.Is 可同时命中自身与分类
type wrapped struct {
	msg  string
	kind error
}

func (e *wrapped) Error() string { return e.msg }
func (e *wrapped) Unwrap() error { return e.kind }

// New 创建归属于某一分类的业务错误
func New(kind error, msg string) error {
	return &wrapped{msg: msg, kind: kind}
}
