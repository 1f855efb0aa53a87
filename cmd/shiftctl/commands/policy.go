package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetConflictPolicyCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set-conflict-policy {last|first|merge}",
		Short:     "设置所有已打开排班周期的冲突解决策略",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"last", "first", "merge"},
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := args[0]
			if policy != "last" && policy != "first" && policy != "merge" {
				return fmt.Errorf("策略必须是 last、first 或 merge 之一, got %q", policy)
			}
			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			out, err := client.postJSON("/admin/set_conflict_policy", map[string]string{"policy": policy})
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}
