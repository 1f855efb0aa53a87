package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain {period_id}",
		Short: "断开某排班周期的所有会话并将其从同步中心卸载",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			periodID := args[0]
			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			out, err := client.postJSON("/admin/drain", map[string]string{"periodId": periodID})
			if err != nil {
				return err
			}
			if err := printJSON(out); err != nil {
				return err
			}
			fmt.Printf("周期 %s 已下线\n", periodID)
			return nil
		},
	}
}
