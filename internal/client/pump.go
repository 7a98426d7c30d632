package client

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/protocol/codec"
)

// readPump 从服务器读取消息
func (c *Client) readPump() {
	var connectedOnce sync.Once
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		c.Close()
		if c.OnClose != nil {
			c.OnClose()
		}
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if c.OnError != nil {
					c.OnError(err)
				}
			}
			return
		}

		msg, err := c.codec.Decode(data)
		if err != nil {
			logger.LogWarn("消息解析错误: %v", err)
			continue
		}

		switch msg.Type {
		case protocol.MsgConnected:
			if payload, err := codec.ParsePayload[protocol.ConnectedPayload](msg); err == nil {
				c.playerID.Store(payload.PlayerID)
				connectedOnce.Do(func() { close(c.connected) })
			}
			continue

		case protocol.MsgAck:
			if c.resolve(msg) {
				continue
			}

		case protocol.MsgPong:
			if payload, err := codec.ParsePayload[protocol.PongPayload](msg); err == nil {
				latency := time.Now().UnixMilli() - payload.ClientTimestamp
				c.latency.Store(latency)
				if c.OnLatencyUpdate != nil {
					c.OnLatencyUpdate(latency)
				}
			}
			continue
		}

		if c.OnMessage != nil {
			c.OnMessage(msg)
		}

		select {
		case c.events <- msg:
		default:
		}
	}
}

// resolve 把 ack 交给等待中的请求
func (c *Client) resolve(msg *protocol.Message) bool {
	c.pendingMu.Lock()
	ch, ok := c.pending[msg.ID]
	c.pendingMu.Unlock()
	if !ok {
		return false
	}

	ack, err := codec.ParsePayload[protocol.AckPayload](msg)
	if err != nil {
		logger.LogWarn("ack 解析错误: %v", err)
		return false
	}
	select {
	case ch <- *ack:
	default:
	}
	return true
}

// writePump 向服务器写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
		}
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frameType := websocket.TextMessage
	if c.codec.Binary() {
		frameType = websocket.BinaryMessage
	}

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(frameType, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
