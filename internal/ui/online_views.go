package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *OnlineModel) View() string {
	sections := []string{titleStyle("🕵  谁是卧底"), m.statusLine()}

	if m.room == nil {
		sections = append(sections, boxStyle.Render("create <名字> 创建房间\njoin <房间号> <名字> 加入房间"))
	} else {
		sections = append(sections, m.roomView())
		if m.role != nil {
			sections = append(sections, m.roleView())
		}
		if m.results != nil {
			sections = append(sections, m.resultsView())
		}
	}

	if len(m.leaderboard) > 0 {
		sections = append(sections, m.leaderboardView())
	}
	if len(m.logs) > 0 {
		sections = append(sections, dimStyle.Render(strings.Join(m.logs, "\n")))
	}
	if m.err != "" {
		sections = append(sections, errorStyle.Render("❌ "+m.err))
	}
	sections = append(sections, promptStyle.Render(m.input.View()))

	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *OnlineModel) statusLine() string {
	if !m.connected {
		return dimStyle.Render("连接中... " + m.client.ServerURL)
	}
	return dimStyle.Render(fmt.Sprintf("🟢 %s · 延迟 %dms", m.playerID, m.client.Latency()))
}

func (m *OnlineModel) roomView() string {
	var sb strings.Builder
	phase := phaseLabels[m.room.Phase]
	if phase == "" {
		phase = m.room.Phase
	}
	fmt.Fprintf(&sb, "房间 %s · %s · 第 %d 轮\n", m.room.ID, phase, m.room.Round)

	for _, p := range m.room.Players {
		icon := "  "
		if p.ID == m.room.OwnerID {
			icon = OwnerIcon
		}
		line := fmt.Sprintf("%s %s", icon, p.Name)
		if p.ID == m.playerID {
			line += " " + SelfMark
		}
		fmt.Fprintf(&sb, "%-24s %d 分\n", line, p.Score)
	}

	if m.room.Phase == "active" {
		fmt.Fprintf(&sb, "已投票 %d/%d", m.room.VotesCount, len(m.room.Players))
	}
	return boxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func (m *OnlineModel) roleView() string {
	if m.role.IsImpostor || m.role.Word == nil {
		return boxStyle.Render(impostorText.Render(ImpostorIcon + " 你是卧底！听听别人怎么说"))
	}
	return boxStyle.Render("你的词: " + wordStyle.Render(*m.role.Word))
}

func (m *OnlineModel) resultsView() string {
	r := m.results
	var sb strings.Builder
	fmt.Fprintf(&sb, "卧底: %s\n", impostorText.Render(playerName(m.room, r.ImpostorID)))
	fmt.Fprintf(&sb, "词语: %s\n", wordStyle.Render(r.Word))
	if r.Disconnected {
		sb.WriteString("卧底已离开房间\n")
	}
	for _, v := range r.Votes {
		fmt.Fprintf(&sb, "  %s → %s\n", playerName(m.room, v.VoterID), playerName(m.room, v.TargetID))
	}
	if r.VotesForImpostor != nil {
		fmt.Fprintf(&sb, "投中卧底: %d 票", *r.VotesForImpostor)
	}
	return boxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func (m *OnlineModel) leaderboardView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle("🏆 排行榜") + "\n")
	for _, e := range m.leaderboard {
		fmt.Fprintf(&sb, "%2d. %-16s %d\n", e.Rank, e.Name, e.Points)
	}
	return boxStyle.Render(strings.TrimRight(sb.String(), "\n"))
}
