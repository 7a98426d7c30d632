// Package client 是服务端协议的 Go 客户端，命令行客户端和集成测试共用
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/word-impostor/internal/apperrors"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 心跳检测间隔
	heartbeatInterval = 5 * time.Second

	bufferSize = 256
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
)

// Client WebSocket 客户端
type Client struct {
	ServerURL string
	codec     codec.Codec
	conn      *websocket.Conn
	send      chan []byte
	events    chan *protocol.Message
	done      chan struct{}
	connected chan struct{}

	// 回调在读协程中调用，需在 Connect 之前设置
	OnMessage       func(*protocol.Message)
	OnError         func(error)
	OnClose         func()
	OnLatencyUpdate func(int64)

	playerID atomic.Value // string
	latency  atomic.Int64 // 毫秒

	pending   map[string]chan protocol.AckPayload
	pendingMu sync.Mutex

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建客户端，codecName 为 "json"（默认）或 "protobuf"
func NewClient(serverURL, codecName string) *Client {
	return &Client{
		ServerURL: serverURL,
		codec:     codec.ByName(codecName),
		send:      make(chan []byte, bufferSize),
		events:    make(chan *protocol.Message, bufferSize),
		done:      make(chan struct{}),
		connected: make(chan struct{}),
		pending:   make(map[string]chan protocol.AckPayload),
	}
}

// Connect 连接服务器，等待服务端分配玩家 ID
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	q := u.Query()
	q.Set("codec", c.codec.Name())
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (status %d)", u.Redacted(), err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()

	select {
	case <-c.connected:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		c.Close()
		return ctx.Err()
	}
}

// PlayerID 服务端分配的玩家 ID
func (c *Client) PlayerID() string {
	id, _ := c.playerID.Load().(string)
	return id
}

// Latency 最近一次心跳往返延迟（毫秒）
func (c *Client) Latency() int64 {
	return c.latency.Load()
}

// Events 服务端推送（room_update、role、results、error 等），缓冲区满时丢弃
func (c *Client) Events() <-chan *protocol.Message {
	return c.events
}

// Done 连接关闭时关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// SendMessage 发送消息，不等待应答
func (c *Client) SendMessage(msg *protocol.Message) error {
	data, err := c.codec.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// Request 发送请求并等待 ack，ack.ok 为 false 时返回对应的 *apperrors.GameError
func (c *Client) Request(ctx context.Context, msgType protocol.MessageType, payload any) (protocol.AckPayload, error) {
	msg, err := codec.NewMessage(msgType, payload)
	if err != nil {
		return protocol.AckPayload{}, err
	}
	msg.ID = uuid.NewString()

	ch := make(chan protocol.AckPayload, 1)
	c.pendingMu.Lock()
	c.pending[msg.ID] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, msg.ID)
		c.pendingMu.Unlock()
	}()

	if err := c.SendMessage(msg); err != nil {
		return protocol.AckPayload{}, err
	}

	select {
	case ack := <-ch:
		if !ack.OK {
			return ack, apperrors.FromCode(ack.Error)
		}
		return ack, nil
	case <-c.done:
		return protocol.AckPayload{}, ErrClosed
	case <-ctx.Done():
		return protocol.AckPayload{}, ctx.Err()
	}
}

// Close 关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

// StartHeartbeat 定期发送 ping 以更新延迟
func (c *Client) StartHeartbeat() {
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.IsConnected() {
					_ = c.Ping()
				}
			case <-c.done:
				return
			}
		}
	}()
}
