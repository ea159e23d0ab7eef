package cli

import (
	"os"
	"path/filepath"

	"ragdesk/config"
	"ragdesk/tui"
	"ragdesk/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var chatSession string

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in the terminal",
		Run:   runChat,
	}
	cmd.Flags().StringVar(&chatSession, "session", "", "Resume a session id")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	mustValidate()
	// The terminal belongs to the UI; logs go to a file.
	if err := os.MkdirAll(config.AppConfig.DataDir, 0o755); err == nil {
		utils.InitializeFileLogger(filepath.Join(config.AppConfig.DataDir, "chat.log"))
	}

	a, err := newApp(cmd.Context(), appOptions{withChat: true})
	if err != nil {
		exitErr("initialize", err)
	}
	defer a.Close()

	m := tui.New(cmd.Context(), a.chat, chatSession)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		exitErr("terminal ui", err)
	}
}
