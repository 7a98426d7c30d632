package main

import (
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/word-impostor/internal/ui"
)

func main() {
	serverAddr := flag.String("server", "localhost:4000", "服务器地址")
	codecName := flag.String("codec", "json", "编码格式: json 或 protobuf")
	flag.Parse()

	serverURL := fmt.Sprintf("ws://%s/ws", *serverAddr)

	model := ui.NewOnlineModel(serverURL, *codecName)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("启动客户端时出错: %v", err)
	}
}
