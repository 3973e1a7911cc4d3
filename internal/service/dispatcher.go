package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"epu-club/backend/internal/model"
	"epu-club/backend/internal/repository"
	"epu-club/backend/internal/workflow"
)

// TransitionEvent 一次成功流转的通知事件
type TransitionEvent struct {
	EventID      string          `json:"event_id"`
	SubmissionID string          `json:"submission_id"`
	Seq          int             `json:"seq"`
	Kind         workflow.Kind   `json:"kind"`
	Title        string          `json:"title"`
	ClubID       string          `json:"club_id"`
	TeamID       *string         `json:"team_id,omitempty"`
	AuthorID     string          `json:"author_id"`
	Event        workflow.Event  `json:"event"`
	From         workflow.Status `json:"from"`
	To           workflow.Status `json:"to"`
	Via          workflow.Status `json:"via,omitempty"`
	ActorID      string          `json:"actor_id"`
	Feedback     *string         `json:"feedback,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Dispatcher 通知分发；Dispatch 不阻塞、不返回错误
type Dispatcher interface {
	Dispatch(evt TransitionEvent)
}

// Sink 事件的一个下游
type Sink interface {
	Name() string
	Handle(ctx context.Context, evt TransitionEvent) error
}

// ────────────────────── 异步分发器 ──────────────────────

const sinkTimeout = 5 * time.Second

// AsyncDispatcher 按提交 ID 分片的异步分发器：
// 同一提交的事件总进入同一队列，保证投递顺序；队列满时丢弃并记录日志
type AsyncDispatcher struct {
	shards []chan TransitionEvent
	sinks  []Sink
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewAsyncDispatcher 创建分发器，需调用 Start 启动 worker
func NewAsyncDispatcher(workers, queueSize int, logger *zap.Logger, sinks ...Sink) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	shards := make([]chan TransitionEvent, workers)
	for i := range shards {
		shards[i] = make(chan TransitionEvent, queueSize)
	}
	return &AsyncDispatcher{shards: shards, sinks: sinks, logger: logger}
}

// Start 启动 worker
func (d *AsyncDispatcher) Start() {
	for i, ch := range d.shards {
		d.wg.Add(1)
		go d.run(i, ch)
	}
	d.logger.Info("通知分发器已启动", zap.Int("workers", len(d.shards)), zap.Int("sinks", len(d.sinks)))
}

// Dispatch 入队；已关闭或队列满时丢弃
func (d *AsyncDispatcher) Dispatch(evt TransitionEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("分发器已关闭，丢弃事件", zap.String("submission_id", evt.SubmissionID), zap.Int("seq", evt.Seq))
		return
	}

	select {
	case d.shards[d.shardOf(evt.SubmissionID)] <- evt:
	default:
		d.logger.Warn("通知队列已满，丢弃事件",
			zap.String("submission_id", evt.SubmissionID),
			zap.Int("seq", evt.Seq),
			zap.String("to", string(evt.To)),
		)
	}
}

// Stop 停止接收并等待队列排空；ctx 到期时放弃等待
func (d *AsyncDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, ch := range d.shards {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("等待通知队列排空超时: %w", ctx.Err())
	}
}

func (d *AsyncDispatcher) shardOf(submissionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(submissionID))
	return int(h.Sum32() % uint32(len(d.shards)))
}

func (d *AsyncDispatcher) run(idx int, ch <-chan TransitionEvent) {
	defer d.wg.Done()
	for evt := range ch {
		for _, sink := range d.sinks {
			d.deliver(idx, sink, evt)
		}
	}
}

func (d *AsyncDispatcher) deliver(idx int, sink Sink, evt TransitionEvent) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("通知下游 panic",
				zap.String("sink", sink.Name()),
				zap.Int("worker", idx),
				zap.Any("panic", r),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	if err := sink.Handle(ctx, evt); err != nil {
		d.logger.Warn("通知投递失败",
			zap.String("sink", sink.Name()),
			zap.String("submission_id", evt.SubmissionID),
			zap.Int("seq", evt.Seq),
			zap.Error(err),
		)
	}
}

// ────────────────────── 站内信 ──────────────────────

type inboxSink struct {
	repo *repository.Repository
}

// NewInboxSink 为相关用户写入 notifications：
// 作者总是收到；进入社团审核时通知社团干部；进入校级审核时通知学校工作人员。操作者本人不通知
func NewInboxSink(repo *repository.Repository) Sink {
	return &inboxSink{repo: repo}
}

func (s *inboxSink) Name() string { return "inbox" }

func (s *inboxSink) Handle(ctx context.Context, evt TransitionEvent) error {
	recipients := []string{evt.AuthorID}

	switch evt.To {
	case workflow.StatusPendingClub, workflow.StatusUpdatedPendingClub:
		ids, err := s.repo.Directory.ListOfficerIDs(ctx, evt.ClubID)
		if err != nil {
			return fmt.Errorf("查询社团干部失败: %w", err)
		}
		recipients = append(recipients, ids...)
	case workflow.StatusPendingUniversity:
		ids, err := s.repo.Directory.ListStaffIDs(ctx)
		if err != nil {
			return fmt.Errorf("查询学校工作人员失败: %w", err)
		}
		recipients = append(recipients, ids...)
	}

	title, content := describeEvent(evt)
	relatedType := model.RelatedTypeSubmission
	seen := make(map[string]bool, len(recipients))
	items := make([]model.Notification, 0, len(recipients))
	for _, uid := range recipients {
		if uid == "" || uid == evt.ActorID || seen[uid] {
			continue
		}
		seen[uid] = true
		n := model.Notification{
			UserID:      uid,
			Type:        model.NotificationTypeSubmission,
			Title:       title,
			Content:     content,
			RelatedType: &relatedType,
			RelatedID:   &evt.SubmissionID,
		}
		n.CreatedBy = &evt.ActorID
		items = append(items, n)
	}
	return s.repo.Notification.BatchCreate(ctx, items)
}

var eventVerbs = map[workflow.Event]string{
	workflow.EventSubmit:            "已提交，等待社团审核",
	workflow.EventCancel:            "已撤回",
	workflow.EventClubApprove:       "社团审核通过，等待学校审核",
	workflow.EventClubReject:        "被社团驳回",
	workflow.EventResubmit:          "已修改并重新提交",
	workflow.EventUniversityApprove: "学校审核通过，已发布",
	workflow.EventUniversityReject:  "被学校驳回",
}

func describeEvent(evt TransitionEvent) (string, string) {
	kind := "新闻申请"
	if evt.Kind == workflow.KindReport {
		kind = "报告"
	}
	verb, ok := eventVerbs[evt.Event]
	if !ok {
		verb = fmt.Sprintf("状态变更为 %s", evt.To)
	}
	title := fmt.Sprintf("%s「%s」%s", kind, evt.Title, verb)
	content := fmt.Sprintf("状态：%s → %s", evt.From, evt.To)
	if evt.Feedback != nil {
		content += "\n审核意见：" + *evt.Feedback
	}
	return truncateRunes(title, 200), content
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ────────────────────── Redis 推送 ──────────────────────

// Publisher 发布订阅通道（pkg/redis.Client 实现）
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) (int64, error)
}

type redisSink struct {
	pub     Publisher
	channel string
}

// NewRedisSink 将事件以 JSON 推送到总频道与作者个人频道，供实时推送网关订阅
func NewRedisSink(pub Publisher, channel string) Sink {
	return &redisSink{pub: pub, channel: channel}
}

func (s *redisSink) Name() string { return "redis" }

func (s *redisSink) Handle(ctx context.Context, evt TransitionEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	if _, err := s.pub.Publish(ctx, s.channel, payload); err != nil {
		return fmt.Errorf("推送到 %s 失败: %w", s.channel, err)
	}
	userChannel := fmt.Sprintf("user:%s:notifications", evt.AuthorID)
	if _, err := s.pub.Publish(ctx, userChannel, payload); err != nil {
		return fmt.Errorf("推送到 %s 失败: %w", userChannel, err)
	}
	return nil
}
