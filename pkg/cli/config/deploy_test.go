package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stevedore/pkg/cli/config"
)

func TestDeploy_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stevedore.toml")
	content := `
root = "/srv/apps"
excludes = ["stevedore", "backups"]
sync_timeout = "90s"
build_timeout = "20m"
`
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg := &config.Deploy{
		Root:        "/ignored",
		ConfigPath:  path,
		SyncTimeout: time.Minute,
		SettleDelay: 5 * time.Second,
	}

	gt.NoError(t, cfg.LoadFile())

	gt.Value(t, cfg.Root).Equal("/srv/apps")
	gt.Number(t, len(cfg.Excludes)).Equal(2)
	gt.Value(t, cfg.SyncTimeout).Equal(90 * time.Second)
	gt.Value(t, cfg.BuildTimeout).Equal(20 * time.Minute)
	// Fields absent from the file keep their flag values.
	gt.Value(t, cfg.SettleDelay).Equal(5 * time.Second)
}

func TestDeploy_LoadFile_NoPathIsNoOp(t *testing.T) {
	cfg := &config.Deploy{Root: "/srv/apps"}
	gt.NoError(t, cfg.LoadFile())
	gt.Value(t, cfg.Root).Equal("/srv/apps")
}

func TestDeploy_LoadFile_MissingFile(t *testing.T) {
	cfg := &config.Deploy{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")}
	gt.Error(t, cfg.LoadFile())
}

func TestDeploy_LoadFile_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stevedore.toml")
	gt.NoError(t, os.WriteFile(path, []byte(`sync_timeout = "soon"`), 0o644))

	cfg := &config.Deploy{ConfigPath: path}
	gt.Error(t, cfg.LoadFile())
}

func TestDeploy_LoadFile_BadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stevedore.toml")
	gt.NoError(t, os.WriteFile(path, []byte(`root = [`), 0o644))

	cfg := &config.Deploy{ConfigPath: path}
	gt.Error(t, cfg.LoadFile())
}
