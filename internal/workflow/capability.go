package workflow

import "strings"

// Capability 权限等级
type Capability uint8

const (
	CapTeam       Capability = 1 << iota // 社团成员 / 小组成员
	CapClub                              // 社团干部（officer / treasurer / president）
	CapUniversity                        // 学校工作人员
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapTeam, "TEAM"},
	{CapClub, "CLUB"},
	{CapUniversity, "UNIVERSITY"},
}

func (c Capability) String() string {
	for _, n := range capabilityNames {
		if n.cap == c {
			return n.name
		}
	}
	return "UNKNOWN"
}

// CapabilitySet 权限集合（位图）
type CapabilitySet uint8

// Has 是否具备指定权限
func (s CapabilitySet) Has(c Capability) bool {
	return uint8(s)&uint8(c) != 0
}

// With 追加权限
func (s CapabilitySet) With(c Capability) CapabilitySet {
	return CapabilitySet(uint8(s) | uint8(c))
}

// String 以逗号分隔的权限名，空集合为空串（用作缓存值）
func (s CapabilitySet) String() string {
	var names []string
	for _, n := range capabilityNames {
		if s.Has(n.cap) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

// ParseCapabilitySet 解析 String 的输出，忽略未知名称
func ParseCapabilitySet(v string) CapabilitySet {
	var s CapabilitySet
	for _, part := range strings.Split(v, ",") {
		for _, n := range capabilityNames {
			if strings.TrimSpace(part) == n.name {
				s = s.With(n.cap)
			}
		}
	}
	return s
}

// Caps 便捷构造
func Caps(cs ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range cs {
		s = s.With(c)
	}
	return s
}

// Actor 本次调用的操作者，权限由服务端针对目标社团解析得出
type Actor struct {
	UserID string
	Caps   CapabilitySet
}
