// Package session 维护连接与房间的归属关系
package session

import "sync"

// Membership 连接 ID ↔ 房间号 的双向索引，由网关持有
//
// 一个连接同一时刻最多属于一个房间。
type Membership struct {
	rooms   map[string]string              // connID -> room code
	members map[string]map[string]struct{} // room code -> connIDs
	mu      sync.RWMutex
}

// NewMembership 创建成员索引
func NewMembership() *Membership {
	return &Membership{
		rooms:   make(map[string]string),
		members: make(map[string]map[string]struct{}),
	}
}

// Bind 将连接绑定到房间，返回之前绑定的房间号（没有则为空）
func (m *Membership) Bind(connID, code string) (previous string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous = m.unbindLocked(connID)
	m.rooms[connID] = code
	set, ok := m.members[code]
	if !ok {
		set = make(map[string]struct{})
		m.members[code] = set
	}
	set[connID] = struct{}{}
	return previous
}

// Unbind 解除连接的房间绑定，返回原房间号
func (m *Membership) Unbind(connID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unbindLocked(connID)
}

func (m *Membership) unbindLocked(connID string) string {
	code, ok := m.rooms[connID]
	if !ok {
		return ""
	}
	delete(m.rooms, connID)
	if set, ok := m.members[code]; ok {
		delete(set, connID)
		if len(set) == 0 {
			delete(m.members, code)
		}
	}
	return code
}

// RoomOf 连接当前所在的房间号
func (m *Membership) RoomOf(connID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[connID]
}

// Members 房间内的连接 ID（顺序不保证）
func (m *Membership) Members(code string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := m.members[code]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// RoomCount 有成员的房间数
func (m *Membership) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.members)
}
