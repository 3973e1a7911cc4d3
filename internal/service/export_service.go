package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"epu-club/backend/config"
	"epu-club/backend/internal/model"
	"epu-club/backend/internal/repository"
	"epu-club/backend/internal/workflow"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成导出文件失败")

// ExportService 导出业务接口
//
//   - 报告要求进度导出为 Excel (.xlsx)，每个社团一行
//   - 截止日期日历导出为 iCalendar (.ics)，可被日历客户端订阅
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportRequirementProgress 导出某报告要求在各社团的进度
	ExportRequirementProgress(ctx context.Context, requirementID, callerID string) (*bytes.Buffer, string, error)
	// RequirementCalendar 导出截止日期日历；clubID 为空时导出全部要求（仅学校工作人员）
	RequirementCalendar(ctx context.Context, clubID, callerID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo     *repository.Repository
	resolver CapabilityResolver
	baseURL  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, resolver CapabilityResolver, logger *zap.Logger) ExportService {
	return &exportService{
		repo:     repo,
		resolver: resolver,
		baseURL:  cfg.Server.BaseURL,
		logger:   logger,
		now:      time.Now,
	}
}

// 状态的中文展示名
var statusLabels = map[workflow.Status]string{
	workflow.StatusDraft:                 "草稿",
	workflow.StatusPendingClub:           "待社团审核",
	workflow.StatusApprovedClub:          "社团已通过",
	workflow.StatusRejectedClub:          "社团驳回",
	workflow.StatusUpdatedPendingClub:    "修改后待社团审核",
	workflow.StatusPendingUniversity:     "待学校审核",
	workflow.StatusApprovedUniversity:    "学校已通过",
	workflow.StatusRejectedUniversity:    "学校驳回",
	workflow.StatusResubmittedUniversity: "已重新提交学校",
	workflow.StatusCanceled:              "已撤回",
}

func statusLabel(s workflow.Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ═══════════════════════════════════════════════════════════
// ExportRequirementProgress — 报告要求进度 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：要求标题 + 截止时间（合并单元格）
//   - 第 2 行：表头
//   - 之后每个社团一行，按社团名称排序；无提交的社团显示「未提交」

var progressHeaders = []string{"社团", "负责小组", "提交标题", "状态", "提交时间", "审核时间", "是否逾期"}

func (s *exportService) ExportRequirementProgress(ctx context.Context, requirementID, callerID string) (*bytes.Buffer, string, error) {
	ok, err := HasCapability(ctx, s.resolver, callerID, "", workflow.CapUniversity)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", ErrUniversityOnly
	}

	requirement, err := s.repo.Requirement.GetByID(ctx, requirementID)
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrRequirementNotFound
		}
		s.logger.Error("查询报告要求失败", zap.String("requirement_id", requirementID), zap.Error(err))
		return nil, "", err
	}

	items, _, err := s.repo.ClubRequirement.ListByRequirement(ctx, requirementID, "", 0, 0)
	if err != nil {
		s.logger.Error("查询社团要求失败", zap.String("requirement_id", requirementID), zap.Error(err))
		return nil, "", err
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ClubRequirementID)
	}
	latest, err := s.repo.Submission.LatestByClubRequirements(ctx, ids)
	if err != nil {
		s.logger.Error("查询最新提交失败", zap.Error(err))
		return nil, "", err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return clubName(&items[i]) < clubName(&items[j])
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "进度"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 24)
	f.SetColWidth(sheetName, "B", "B", 16)
	f.SetColWidth(sheetName, "C", "C", 36)
	f.SetColWidth(sheetName, "D", "G", 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	overdueStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "#C00000", Bold: true},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s（截止 %s）", requirement.Title, requirement.DueDate.Format("2006-01-02 15:04")))
	f.MergeCell(sheetName, "A1", cell(colName(len(progressHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range progressHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(progressHeaders)-1), 2), headerStyle)

	// 数据行
	now := s.now()
	row := 3
	for i := range items {
		item := &items[i]
		var sub *model.Submission
		if l, ok := latest[item.ClubRequirementID]; ok {
			sub = &l
		}

		team := "-"
		if item.AssignedTeam != nil {
			team = item.AssignedTeam.Name
		}
		title, status, submitted, reviewed := "-", "未提交", "-", "-"
		if sub != nil {
			title = sub.Title
			status = statusLabel(sub.Status)
			submitted = formatDate(sub.SubmittedDate)
			reviewed = formatDate(sub.ReviewedDate)
		}
		overdue := "否"
		if isOverdue(requirement, sub, now) {
			overdue = "是"
		}

		values := []string{clubName(item), team, title, status, submitted, reviewed, overdue}
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), row), v)
		}
		if overdue == "是" {
			g := cell(colName(len(values)-1), row)
			f.SetCellStyle(sheetName, g, g, overdueStyle)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("报告进度_%s.xlsx", requirement.Title)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// RequirementCalendar — 截止日期日历
// ═══════════════════════════════════════════════════════════
//
// 每个报告要求一个 VEVENT：截止时刻前一小时到截止时刻，并附带提前一天的提醒

const calendarEventSpan = time.Hour

func (s *exportService) RequirementCalendar(ctx context.Context, clubID, callerID string) (*bytes.Buffer, string, error) {
	caps, err := s.resolver.Capabilities(ctx, callerID, clubID)
	if err != nil {
		return nil, "", err
	}
	switch {
	case clubID == "" && !caps.Has(workflow.CapUniversity):
		return nil, "", ErrUniversityOnly
	case clubID != "" && caps == 0:
		return nil, "", ErrNotClubMember
	}

	requirements, err := s.repo.Requirement.ListByClub(ctx, clubID)
	if err != nil {
		s.logger.Error("查询报告要求失败", zap.String("club_id", clubID), zap.Error(err))
		return nil, "", err
	}

	name := "报告截止日期"
	if clubID != "" {
		if club, err := s.repo.Directory.GetClub(ctx, clubID); err == nil {
			name = club.Name + " · " + name
		}
	}

	cal := buildRequirementCalendar(name, s.baseURL, requirements, s.now())

	buf := new(bytes.Buffer)
	if err := cal.SerializeTo(buf); err != nil {
		s.logger.Error("生成日历失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, "requirements.ics", nil
}

func buildRequirementCalendar(name, baseURL string, requirements []model.Requirement, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//EPU Club//Requirements//VI")
	cal.SetName(name)
	cal.SetXWRCalName(name)
	cal.SetRefreshInterval("PT1H")

	for i := range requirements {
		r := &requirements[i]
		evt := cal.AddEvent(r.RequirementID + "@epu-club")
		evt.SetDtStampTime(stamp)
		evt.SetCreatedTime(r.CreatedAt)
		evt.SetModifiedAt(r.UpdatedAt)
		evt.SetStartAt(r.DueDate.Add(-calendarEventSpan))
		evt.SetEndAt(r.DueDate)
		evt.SetSummary("截止：" + r.Title)
		if r.Description != "" {
			evt.SetDescription(r.Description)
		}
		if baseURL != "" {
			evt.SetURL(fmt.Sprintf("%s/requirements/%s", baseURL, r.RequirementID))
		}

		alarm := evt.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger("-P1D")
	}
	return cal
}

// ── 辅助函数 ──

func clubName(item *model.ClubRequirement) string {
	if item.Club != nil {
		return item.Club.Name
	}
	return item.ClubID
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
