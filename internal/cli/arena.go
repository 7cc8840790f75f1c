package cli

import (
	"github.com/spf13/cobra"
)

func newArenaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "arena",
		Short: "Show the current lobby queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ArenaResult

			if err := client.Get("/api/v1/arena", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
