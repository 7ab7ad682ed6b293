package cli

import (
	"github.com/spf13/cobra"
)

// NewListCmd создаёт команду list.
func NewListCmd(projectFn ProjectFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks and aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := projectFn(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			return outputFn().Entries(p.Entries())
		},
	}
}
