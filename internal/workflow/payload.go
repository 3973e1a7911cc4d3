package workflow

import (
	"fmt"
	"strings"

	pkgerrors "epu-club/backend/pkg/errors"
)

// Payload 提交的正文字段。
// 报告使用 Title(报告标题)/Content/FileURL；新闻申请使用 Title/Content/Category/ThumbnailURL。
type Payload struct {
	Title        string
	Content      string
	Category     string
	FileURL      string
	ThumbnailURL string
}

// ValidatePayload 提交前的必填校验
func (k Kind) ValidatePayload(p Payload) error {
	var missing []string
	switch k {
	case KindReport:
		if strings.TrimSpace(p.Title) == "" {
			missing = append(missing, "report_title")
		}
	case KindPublicationRequest:
		if strings.TrimSpace(p.Title) == "" {
			missing = append(missing, "title")
		}
		if strings.TrimSpace(p.Content) == "" {
			missing = append(missing, "content")
		}
		if strings.TrimSpace(p.Category) == "" {
			missing = append(missing, "category")
		}
	default:
		return pkgerrors.New(pkgerrors.ErrValidation, fmt.Sprintf("未知的文书类型: %s", k))
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.ErrValidation, "缺少必填字段: "+strings.Join(missing, ", "))
	}
	return nil
}
