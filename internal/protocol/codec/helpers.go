package codec

import (
	"encoding/json"

	"github.com/palemoky/word-impostor/internal/protocol"
)

// NewMessage 创建一个新消息，payload 以 JSON 形式保存在信封中
func NewMessage(msgType protocol.MessageType, payload any) (*protocol.Message, error) {
	msg := &protocol.Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = data
	}
	return msg, nil
}

// MustNewMessage 创建消息，失败时 panic
func MustNewMessage(msgType protocol.MessageType, payload any) *protocol.Message {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParsePayload 解析消息的 Payload 到指定类型，空 payload 得到零值
func ParsePayload[T any](msg *protocol.Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// NewAck 创建请求应答消息
func NewAck(requestID string, ack protocol.AckPayload) *protocol.Message {
	msg := MustNewMessage(protocol.MsgAck, ack)
	msg.ID = requestID
	return msg
}

// NewErrorAck 创建失败应答
func NewErrorAck(requestID, code string) *protocol.Message {
	return NewAck(requestID, protocol.AckPayload{OK: false, Error: code})
}

// NewErrorMessage 创建错误消息
func NewErrorMessage(code string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: protocol.ErrorMessages[code],
	})
}

// NewErrorMessageWithText 创建带自定义文本的错误消息
func NewErrorMessageWithText(code, text string) *protocol.Message {
	return MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    code,
		Message: text,
	})
}
