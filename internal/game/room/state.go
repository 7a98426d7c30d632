package room

// Phase 房间阶段
type Phase string

const (
	PhaseLobby   Phase = "lobby"   // 等待开始，可加入
	PhaseActive  Phase = "active"  // 已发身份，投票中
	PhaseResults Phase = "results" // 本轮结束，已计分
)

// 合法的阶段转换，一旦开始游戏就不会回到 lobby
var phaseTransitions = map[Phase][]Phase{
	PhaseLobby:   {PhaseActive},
	PhaseActive:  {PhaseResults},
	PhaseResults: {PhaseActive},
}

// CanTransitionTo 是否可以从当前阶段转换到 target
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range phaseTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}
