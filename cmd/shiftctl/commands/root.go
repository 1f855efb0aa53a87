// Package commands implements the shiftctl CLI's subcommand tree using
// cobra, grounded on the jholhewres-goclaw CLI's root/subcommand split.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the root command with every admin subcommand
// registered. version is stamped at build time via -ldflags.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "shiftctl",
		Short:   "shiftctl 是排班同步中心的运维命令行工具",
		Version: version,
		Long: `shiftctl 调用排班同步中心的最小运维命令面（health、reload_config、
set_conflict_policy、drain），用于部署流水线和人工排障。`,
	}

	root.PersistentFlags().String("server", "http://localhost:7012", "同步中心管理接口地址")
	root.PersistentFlags().String("api-key", "", "管理操作所需的 API 密钥（也可用 SHIFTCTL_API_KEY 环境变量）")

	root.AddCommand(
		newHealthCmd(),
		newReloadConfigCmd(),
		newSetConflictPolicyCmd(),
		newDrainCmd(),
	)
	return root
}
