package apperrors

import (
	"errors"

	"github.com/palemoky/word-impostor/internal/protocol"
)

// GameError 游戏错误（房间和回合共享），Code 即线上错误码
type GameError struct {
	Code    string
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

func newError(code string) *GameError {
	return &GameError{Code: code, Message: protocol.ErrorMessages[code]}
}

// 预定义错误
var (
	ErrFailedCreate   = newError(protocol.ErrCodeFailedCreate)
	ErrRoomNotFound   = newError(protocol.ErrCodeRoomNotFound)
	ErrNotInRoom      = newError(protocol.ErrCodeNotInRoom)
	ErrNotOwner       = newError(protocol.ErrCodeNotOwner)
	ErrNeedPlayers    = newError(protocol.ErrCodeNeedPlayers)
	ErrGameStarted    = newError(protocol.ErrCodeGameStarted)
	ErrNotVoting      = newError(protocol.ErrCodeNotVoting)
	ErrNotInResults   = newError(protocol.ErrCodeNotInResults)
	ErrInvalidTarget  = newError(protocol.ErrCodeInvalidTarget)
	ErrInvalidPlayer  = newError(protocol.ErrCodeInvalidPlayer)
	ErrInvalidMessage = newError(protocol.ErrCodeInvalidMsg)
)

// CodeOf 返回错误对应的错误码，非 GameError 时返回 fallback
func CodeOf(err error, fallback string) string {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return fallback
}

var byCode = map[string]*GameError{}

func init() {
	for _, e := range []*GameError{
		ErrFailedCreate, ErrRoomNotFound, ErrNotInRoom, ErrNotOwner, ErrNeedPlayers, ErrGameStarted,
		ErrNotVoting, ErrNotInResults, ErrInvalidTarget, ErrInvalidPlayer, ErrInvalidMessage,
	} {
		byCode[e.Code] = e
	}
}

// FromCode 由错误码还原错误，已知错误码返回预定义错误，便于 errors.Is 判断
func FromCode(code string) *GameError {
	if e, ok := byCode[code]; ok {
		return e
	}
	return newError(code)
}
