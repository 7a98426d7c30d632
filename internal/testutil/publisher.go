//go:build !production

package testutil

import (
	"encoding/json"
	"sync"

	"github.com/palemoky/word-impostor/internal/protocol"
)

// Sent 一条被发布的消息
type Sent struct {
	Code   string // 广播时为房间号
	ConnID string // 私发时为连接 ID
	Msg    *protocol.Message
}

// RecordingPublisher 记录所有通知的 types.Publisher 实现
type RecordingPublisher struct {
	mu   sync.Mutex
	sent []Sent
}

func (p *RecordingPublisher) BroadcastToRoom(code string, msg *protocol.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, Sent{Code: code, Msg: msg})
}

func (p *RecordingPublisher) SendToConnection(connID string, msg *protocol.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, Sent{ConnID: connID, Msg: msg})
}

// All 按发布顺序返回所有消息
func (p *RecordingPublisher) All() []Sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Sent(nil), p.sent...)
}

// Reset 清空记录
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}

// Broadcasts 指定类型的广播
func (p *RecordingPublisher) Broadcasts(msgType protocol.MessageType) []*protocol.Message {
	var out []*protocol.Message
	for _, s := range p.All() {
		if s.ConnID == "" && s.Msg.Type == msgType {
			out = append(out, s.Msg)
		}
	}
	return out
}

// Direct 私发给某个连接的指定类型消息
func (p *RecordingPublisher) Direct(connID string, msgType protocol.MessageType) []*protocol.Message {
	var out []*protocol.Message
	for _, s := range p.All() {
		if s.ConnID == connID && s.Msg.Type == msgType {
			out = append(out, s.Msg)
		}
	}
	return out
}

// LastRoomUpdate 最近一次广播的房间状态
func (p *RecordingPublisher) LastRoomUpdate() (protocol.RoomSnapshot, bool) {
	var snap protocol.RoomSnapshot
	msgs := p.Broadcasts(protocol.MsgRoomUpdate)
	if len(msgs) == 0 {
		return snap, false
	}
	return snap, json.Unmarshal(msgs[len(msgs)-1].Payload, &snap) == nil
}

// Results 所有广播的回合结果
func (p *RecordingPublisher) Results() []protocol.ResultsPayload {
	var out []protocol.ResultsPayload
	for _, msg := range p.Broadcasts(protocol.MsgResults) {
		var r protocol.ResultsPayload
		if json.Unmarshal(msg.Payload, &r) == nil {
			out = append(out, r)
		}
	}
	return out
}

// Roles 每个连接最近一次收到的身份
func (p *RecordingPublisher) Roles() map[string]protocol.RolePayload {
	roles := make(map[string]protocol.RolePayload)
	for _, s := range p.All() {
		if s.ConnID == "" || s.Msg.Type != protocol.MsgRole {
			continue
		}
		var r protocol.RolePayload
		if json.Unmarshal(s.Msg.Payload, &r) == nil {
			roles[s.ConnID] = r
		}
	}
	return roles
}
