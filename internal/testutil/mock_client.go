//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/word-impostor/internal/protocol"
)

// SimpleClient 简单的 mock 客户端，不使用 testify（用于不需要断言调用的测试）
type SimpleClient struct {
	ID string

	mu       sync.Mutex
	messages []*protocol.Message
	closed   bool
}

func (c *SimpleClient) GetID() string { return c.ID }

func (c *SimpleClient) SendMessage(msg *protocol.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *SimpleClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Messages 已收到的消息副本
func (c *SimpleClient) Messages() []*protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*protocol.Message(nil), c.messages...)
}

// Last 最后一条消息，没有时返回 nil
func (c *SimpleClient) Last() *protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return nil
	}
	return c.messages[len(c.messages)-1]
}

// Reset 清空已收到的消息
func (c *SimpleClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// IsClosed 是否被关闭
func (c *SimpleClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
