package room

import (
	"github.com/palemoky/word-impostor/internal/apperrors"
	"github.com/palemoky/word-impostor/internal/game/round"
	"github.com/palemoky/word-impostor/internal/logger"
	"github.com/palemoky/word-impostor/internal/protocol"
	"github.com/palemoky/word-impostor/internal/server/storage"
)

// StartGame 房主开始游戏（lobby → active）
func (r *Room) StartGame(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOwnerLocked(requesterID); err != nil {
		return err
	}
	if r.phase != PhaseLobby {
		return apperrors.ErrGameStarted
	}
	if len(r.players) < r.rm.minPlayers {
		return apperrors.ErrNeedPlayers
	}

	return r.startRoundLocked()
}

// NextRound 房主开始下一轮（results → active）
func (r *Room) NextRound(requesterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOwnerLocked(requesterID); err != nil {
		return err
	}
	if r.phase != PhaseResults {
		return apperrors.ErrNotInResults
	}
	return r.startRoundLocked()
}

// SubmitVote 投票，重复投票覆盖上一次；所有人投完后自动结算
func (r *Room) SubmitVote(voterID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return apperrors.ErrRoomNotFound
	}
	if _, ok := r.players[voterID]; !ok {
		return apperrors.ErrNotInRoom
	}
	if r.phase != PhaseActive {
		return apperrors.ErrNotVoting
	}
	if _, ok := r.players[targetID]; !ok {
		return apperrors.ErrInvalidTarget
	}

	if _, voted := r.votes[voterID]; !voted {
		r.voteOrder = append(r.voteOrder, voterID)
	}
	r.votes[voterID] = targetID

	if len(r.votes) == len(r.players) {
		r.concludeLocked()
	}
	r.publishStateLocked()
	return nil
}

// EndVoting 房主提前结束投票，返回本轮结果
func (r *Room) EndVoting(requesterID string) (*protocol.ResultsPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOwnerLocked(requesterID); err != nil {
		return nil, err
	}
	if r.phase != PhaseActive {
		return nil, apperrors.ErrNotVoting
	}

	results := r.concludeLocked()
	r.publishStateLocked()
	return results, nil
}

// MakeOwner 房主转让
func (r *Room) MakeOwner(requesterID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkOwnerLocked(requesterID); err != nil {
		return err
	}
	if _, ok := r.players[targetID]; !ok {
		return apperrors.ErrInvalidPlayer
	}

	r.ownerID = targetID
	logger.Room(r.Code).Info().Str("owner", targetID).Msg("👑 房主已转让")
	r.publishStateLocked()
	return nil
}

func (r *Room) checkOwnerLocked(requesterID string) error {
	if r.closed {
		return apperrors.ErrRoomNotFound
	}
	if r.ownerID != requesterID {
		return apperrors.ErrNotOwner
	}
	return nil
}

// startRoundLocked 抽词、选卧底、清空投票，并私发身份
func (r *Room) startRoundLocked() error {
	if err := r.setPhase(PhaseActive); err != nil {
		return err
	}

	a := round.Assign(r.rm.catalog.PickRandomWord(), r.playerOrder, r.rm.picker)
	r.round++
	r.word = a.Word
	r.impostorID = a.ImpostorID
	r.clearVotesLocked()

	for _, id := range r.playerOrder {
		role := protocol.RolePayload{IsImpostor: id == r.impostorID}
		if !role.IsImpostor {
			w := r.word
			role.Word = &w
		}
		r.sendTo(id, protocol.MsgRole, role)
	}

	logger.Room(r.Code).Info().Int("round", r.round).Int("players", len(r.players)).Msg("🎲 新一轮开始")
	r.rm.observer.RoundStarted()
	r.publishStateLocked()
	return nil
}

// voteRecordsLocked 按首次投票顺序展开投票
func (r *Room) voteRecordsLocked() []round.Vote {
	votes := make([]round.Vote, 0, len(r.voteOrder))
	for _, voter := range r.voteOrder {
		votes = append(votes, round.Vote{VoterID: voter, TargetID: r.votes[voter]})
	}
	return votes
}

func toVoteRecords(votes []round.Vote) []protocol.VoteRecord {
	records := make([]protocol.VoteRecord, len(votes))
	for i, v := range votes {
		records[i] = protocol.VoteRecord{VoterID: v.VoterID, TargetID: v.TargetID}
	}
	return records
}

// concludeLocked 计票计分并进入 results，每轮只会执行一次
func (r *Room) concludeLocked() *protocol.ResultsPayload {
	if err := r.setPhase(PhaseResults); err != nil {
		logger.Room(r.Code).Error().Err(err).Msg("结算失败")
		return nil
	}

	out := round.Conclude(r.impostorID, r.word, r.voteRecordsLocked(), len(r.players))

	awards := make(map[string]int, len(out.Awards))
	for id, points := range out.Awards {
		if p, ok := r.players[id]; ok {
			p.Score += points
			awards[p.Name] += points
		}
	}

	votesForImpostor := out.VotesForImpostor
	results := &protocol.ResultsPayload{
		ImpostorID:       out.ImpostorID,
		Word:             out.Word,
		Votes:            toVoteRecords(out.Votes),
		VotesForImpostor: &votesForImpostor,
	}
	r.broadcast(protocol.MsgResults, results)

	logger.Room(r.Code).Info().
		Int("round", r.round).
		Int("votes_for_impostor", votesForImpostor).
		Int("points", out.Total()).
		Msg("🏁 本轮结束")

	r.rm.observer.RoundConcluded(false)
	r.rm.recordRound(r.Code, storage.RoundRecord{
		Awards:        awards,
		Catches:       votesForImpostor,
		ImpostorBonus: round.ImpostorEarnsBonus(votesForImpostor, len(r.players)),
	})
	return results
}

// forceResultsLocked 卧底在投票中离开：直接进入 results，不计分，votes 为离开前的投票
func (r *Room) forceResultsLocked(impostorID string, votes []round.Vote) {
	if err := r.setPhase(PhaseResults); err != nil {
		logger.Room(r.Code).Error().Err(err).Msg("强制结算失败")
		return
	}

	r.broadcast(protocol.MsgResults, protocol.ResultsPayload{
		ImpostorID:   impostorID,
		Word:         r.word,
		Votes:        toVoteRecords(votes),
		Disconnected: true,
	})

	logger.Room(r.Code).Warn().Int("round", r.round).Msg("🏳️ 卧底离开，本轮提前结束")
	r.rm.observer.RoundConcluded(true)
	r.rm.recordRound(r.Code, storage.RoundRecord{Disconnected: true})
}
