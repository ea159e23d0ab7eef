package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every indexed vector and stored document",
		Run:   runClear,
	}

	RootCmd.AddCommand(cmd)
}

func runClear(cmd *cobra.Command, args []string) {
	mustValidate()
	a, err := newApp(cmd.Context(), appOptions{})
	if err != nil {
		exitErr("initialize", err)
	}
	defer a.Close()

	if err := a.ingestor.ClearAll(cmd.Context()); err != nil {
		exitErr("clear", err)
	}
	fmt.Println("All documents cleared")
}
