package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReloadConfigCmd() *cobra.Command {
	var restaurantID string
	cmd := &cobra.Command{
		Use:   "reload-config",
		Short: "重新加载指定餐厅的人员名单和激活配置版本",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if restaurantID == "" {
				return fmt.Errorf("必须指定 --restaurant-id")
			}
			client, err := clientFromCmd(cmd)
			if err != nil {
				return err
			}
			out, err := client.postJSON("/admin/reload_config", map[string]string{"restaurantId": restaurantID})
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
	cmd.Flags().StringVar(&restaurantID, "restaurant-id", "", "要重新加载的餐厅 UUID")
	return cmd
}
