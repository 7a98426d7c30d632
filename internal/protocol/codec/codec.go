package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/palemoky/word-impostor/internal/protocol"
)

// 编解码器名称，对应 /ws?codec=xxx
const (
	NameJSON     = "json"
	NameProtobuf = "protobuf"
)

// ErrEmptyType is returned when a decoded envelope carries no message type.
var ErrEmptyType = errors.New("message type is empty")

// Codec 线上消息编解码器
type Codec interface {
	Name() string
	// Binary reports whether frames must be sent as binary websocket frames.
	Binary() bool
	Encode(msg *protocol.Message) ([]byte, error)
	Decode(data []byte) (*protocol.Message, error)
}

// ByName 根据名称返回编解码器，未知名称回退到 JSON
func ByName(name string) Codec {
	if name == NameProtobuf {
		return Protobuf{}
	}
	return JSON{}
}

// JSON 文本帧，信封为普通 JSON 对象
type JSON struct{}

func (JSON) Name() string { return NameJSON }
func (JSON) Binary() bool { return false }

// Encode 将消息编码为 JSON
func (JSON) Encode(msg *protocol.Message) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return nil, err
	}
	return bytes.Clone(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Decode 从 JSON 解码消息
// 注意: 使用完毕后应调用 PutMessage 归还对象到池
func (JSON) Decode(data []byte) (*protocol.Message, error) {
	msg := GetMessage()
	if err := json.Unmarshal(data, msg); err != nil {
		PutMessage(msg)
		return nil, err
	}
	if msg.Type == "" {
		PutMessage(msg)
		return nil, ErrEmptyType
	}
	return msg, nil
}

// Protobuf 二进制帧，信封为 google.protobuf.Struct
type Protobuf struct{}

func (Protobuf) Name() string { return NameProtobuf }
func (Protobuf) Binary() bool { return true }

// Encode 将消息编码为 Protobuf 字节
func (Protobuf) Encode(msg *protocol.Message) ([]byte, error) {
	s := GetStruct()
	defer PutStruct(s)

	s.Fields = map[string]*structpb.Value{
		"type": structpb.NewStringValue(string(msg.Type)),
	}
	if msg.ID != "" {
		s.Fields["id"] = structpb.NewStringValue(msg.ID)
	}
	if len(msg.Payload) > 0 {
		var raw any
		if err := json.Unmarshal(msg.Payload, &raw); err != nil {
			return nil, fmt.Errorf("payload is not valid JSON: %w", err)
		}
		v, err := structpb.NewValue(raw)
		if err != nil {
			return nil, err
		}
		s.Fields["payload"] = v
	}
	return proto.Marshal(s)
}

// Decode 从 Protobuf 字节解码消息
// 注意: 使用完毕后应调用 PutMessage 归还对象到池
func (Protobuf) Decode(data []byte) (*protocol.Message, error) {
	s := GetStruct()
	defer PutStruct(s)

	if err := proto.Unmarshal(data, s); err != nil {
		return nil, err
	}

	fields := s.GetFields()
	msgType := fields["type"].GetStringValue()
	if msgType == "" {
		return nil, ErrEmptyType
	}

	msg := GetMessage()
	msg.Type = protocol.MessageType(msgType)
	msg.ID = fields["id"].GetStringValue()
	if v, ok := fields["payload"]; ok {
		// encoding/json keeps integral numbers out of exponent form
		payload, err := json.Marshal(v.AsInterface())
		if err != nil {
			PutMessage(msg)
			return nil, err
		}
		msg.Payload = payload
	}
	return msg, nil
}
