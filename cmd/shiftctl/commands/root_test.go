package commands

import "testing"

func TestNewRootCmd_RegistersAllSubcommands(t *testing.T) {
	root := NewRootCmd("test")

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, n := range []string{"health", "reload-config", "set-conflict-policy", "drain"} {
		if !names[n] {
			t.Errorf("根命令应注册子命令 %q", n)
		}
	}
}

func TestSetConflictPolicyCmd_RejectsUnknownPolicy(t *testing.T) {
	cmd := newSetConflictPolicyCmd()
	cmd.SetArgs([]string{"bogus"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err == nil {
		t.Fatal("未知策略应返回错误")
	}
}
