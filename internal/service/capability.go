package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"epu-club/backend/internal/repository"
	"epu-club/backend/internal/workflow"
)

// CapabilityResolver 解析用户针对某社团的权限集合。
// clubID 为空时只解析与社团无关的学校级权限。
type CapabilityResolver interface {
	Capabilities(ctx context.Context, userID, clubID string) (workflow.CapabilitySet, error)
}

// HasCapability 便捷判断
func HasCapability(ctx context.Context, r CapabilityResolver, userID, clubID string, c workflow.Capability) (bool, error) {
	caps, err := r.Capabilities(ctx, userID, clubID)
	if err != nil {
		return false, err
	}
	return caps.Has(c), nil
}

// ── 基于成员关系表的实现 ──

type membershipResolver struct {
	repo *repository.Repository
}

// NewMembershipResolver 基于 users.role 与 club_members 解析权限
func NewMembershipResolver(repo *repository.Repository) CapabilityResolver {
	return &membershipResolver{repo: repo}
}

func (r *membershipResolver) Capabilities(ctx context.Context, userID, clubID string) (workflow.CapabilitySet, error) {
	var caps workflow.CapabilitySet
	if userID == "" {
		return caps, nil
	}

	user, err := r.repo.Directory.GetUser(ctx, userID)
	switch {
	case err == nil:
		if user.IsUniversityStaff() {
			caps = caps.With(workflow.CapUniversity)
		}
	case isNotFound(err):
		// 身份服务尚未同步的用户按无学校级权限处理
	default:
		return 0, fmt.Errorf("查询用户失败: %w", err)
	}

	if clubID == "" {
		return caps, nil
	}

	members, err := r.repo.Directory.ListMemberships(ctx, userID, clubID)
	if err != nil {
		return 0, fmt.Errorf("查询社团成员关系失败: %w", err)
	}
	for i := range members {
		caps = caps.With(workflow.CapTeam)
		if members[i].IsOfficer() {
			caps = caps.With(workflow.CapClub)
		}
	}
	return caps, nil
}

// ── Redis 读穿缓存 ──

// CapabilityCache 权限缓存存储（pkg/redis.Client 实现）
type CapabilityCache interface {
	CacheGet(ctx context.Context, key string) (string, bool, error)
	CacheSet(ctx context.Context, key, value string, ttl time.Duration) error
}

type cachedResolver struct {
	inner  CapabilityResolver
	cache  CapabilityCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedResolver 在 inner 前加一层缓存；ttl <= 0 时直接返回 inner
func NewCachedResolver(inner CapabilityResolver, cache CapabilityCache, ttl time.Duration, logger *zap.Logger) CapabilityResolver {
	if ttl <= 0 || cache == nil {
		return inner
	}
	return &cachedResolver{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

func capabilityCacheKey(userID, clubID string) string {
	if clubID == "" {
		clubID = "-"
	}
	return "cap:" + userID + ":" + clubID
}

func (r *cachedResolver) Capabilities(ctx context.Context, userID, clubID string) (workflow.CapabilitySet, error) {
	key := capabilityCacheKey(userID, clubID)

	val, ok, err := r.cache.CacheGet(ctx, key)
	if err != nil {
		r.logger.Warn("读取权限缓存失败，回源查询", zap.String("key", key), zap.Error(err))
	} else if ok {
		return workflow.ParseCapabilitySet(val), nil
	}

	caps, err := r.inner.Capabilities(ctx, userID, clubID)
	if err != nil {
		return 0, err
	}

	if err := r.cache.CacheSet(ctx, key, caps.String(), r.ttl); err != nil {
		r.logger.Warn("写入权限缓存失败", zap.String("key", key), zap.Error(err))
	}
	return caps, nil
}
