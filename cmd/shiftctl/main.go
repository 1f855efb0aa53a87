// Command shiftctl 是排班同步中心的运维命令行工具，将 health、
// reload-config、set-conflict-policy、drain 这组最小管理命令面
// 封装为基于 HTTP 的 cobra 子命令。
package main

import (
	"fmt"
	"os"

	"github.com/shiftsync/core/cmd/shiftctl/commands"
)

var version = "dev"

func main() {
	root := commands.NewRootCmd(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
