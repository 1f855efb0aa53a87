package config

import (
	"os"
	"testing"
)

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Hub.ChangeLogSize != 256 {
		t.Fatalf("期望默认变更日志容量 256, got %d", cfg.Hub.ChangeLogSize)
	}
	if cfg.Hub.ConflictPolicy != "last" {
		t.Fatalf("期望默认冲突策略 last, got %s", cfg.Hub.ConflictPolicy)
	}
}

func TestLoad_EnvOverridesDefault(t *testing.T) {
	os.Setenv("HUB_CONFLICT_POLICY", "merge")
	defer os.Unsetenv("HUB_CONFLICT_POLICY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Hub.ConflictPolicy != "merge" {
		t.Fatalf("期望环境变量覆盖为 merge, got %s", cfg.Hub.ConflictPolicy)
	}
}

func TestLoadFile_ParsesYAMLThenAppliesEnv(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	content := []byte("hub:\n  conflict_policy: first\n  change_log_size: 512\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("写入临时配置文件失败: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile 失败: %v", err)
	}
	if cfg.Hub.ConflictPolicy != "first" {
		t.Fatalf("期望 YAML 值 first, got %s", cfg.Hub.ConflictPolicy)
	}
	if cfg.Hub.ChangeLogSize != 512 {
		t.Fatalf("期望 YAML 值 512, got %d", cfg.Hub.ChangeLogSize)
	}
	if cfg.Database.Name != "shiftsync" {
		t.Fatalf("未在 YAML 中覆盖的字段应保留默认值, got %s", cfg.Database.Name)
	}
}
