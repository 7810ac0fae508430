package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeStubCompose(t *testing.T, dir, name string) string {
	t.Helper()
	return writeFile(t, dir, name, "services:\n  alpine:\n    image: alpine:latest\n")
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	writeStubCompose(t, dir, "zookeeper.yaml")
	writeStubCompose(t, dir, "kafka.yaml")

	cfgPath := writeFile(t, dir, "gangway.yaml", `
compose_command: docker-compose
logging:
  dir: /var/log/gangway
  max_size_mb: 50
stages:
  - file: zookeeper.yaml
    project: zk-fixture
    force_recreate: true
    force_down: true
    environment:
      ZOOKEEPER_VERSION: "3.9"
    wait_for:
      - service: zookeeper
        port: 2181
        timeout: 30s
        interval: 250ms
  - file: kafka.yaml
`)

	cfg, err := NewLoader(cfgPath).Load()
	require.NoError(t, err)

	assert.Equal(t, "docker-compose", cfg.ComposeCommand)
	assert.Equal(t, "/var/log/gangway", cfg.Logging.Dir)
	assert.Equal(t, 50, cfg.Logging.MaxSizeMB)

	require.Len(t, cfg.Stages, 2)
	first := cfg.Stages[0]
	assert.Equal(t, filepath.Join(dir, "zookeeper.yaml"), first.File, "stage files resolve relative to the config file")
	assert.Equal(t, "zk-fixture", first.Project)
	assert.True(t, first.ForceRecreate)
	assert.True(t, first.ForceDown)
	assert.Equal(t, map[string]string{"ZOOKEEPER_VERSION": "3.9"}, first.Environment)

	require.Len(t, first.WaitFor, 1)
	assert.Equal(t, "zookeeper", first.WaitFor[0].Service)
	assert.Equal(t, 2181, first.WaitFor[0].Port)
	assert.Equal(t, 30*time.Second, first.WaitFor[0].Timeout)
	assert.Equal(t, 250*time.Millisecond, first.WaitFor[0].Interval)

	second := cfg.Stages[1]
	assert.Equal(t, filepath.Join(dir, "kafka.yaml"), second.File)
	assert.False(t, second.ForceRecreate)
}

func TestLoadAbsoluteStagePathUntouched(t *testing.T) {
	dir := t.TempDir()
	composePath := writeStubCompose(t, dir, "env.yaml")
	cfgDir := t.TempDir()
	cfgPath := writeFile(t, cfgDir, "gangway.yaml", "stages:\n  - file: "+composePath+"\n")

	cfg, err := NewLoader(cfgPath).Load()
	require.NoError(t, err)
	assert.Equal(t, composePath, cfg.Stages[0].File)
}

func TestLoadMissingConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gangway.yaml")

	cfg, err := NewLoader(path).Load()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var nfe *NotFoundError
	require.ErrorAs(t, err, &nfe)
	assert.Equal(t, path, nfe.Path)
}

func TestLoadMalformedYAML(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "gangway.yaml", "stages: [\n")

	_, err := NewLoader(cfgPath).Load()
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
}

func TestLoadValidation(t *testing.T) {
	dir := t.TempDir()
	writeStubCompose(t, dir, "env.yaml")

	tests := []struct {
		name      string
		content   string
		wantField string
	}{
		{
			name:      "no stages",
			content:   "compose_command: docker-compose\n",
			wantField: "stages",
		},
		{
			name:      "stage without file",
			content:   "stages:\n  - project: p\n",
			wantField: "stages[0].file",
		},
		{
			name:      "stage file unreadable",
			content:   "stages:\n  - file: missing.yaml\n",
			wantField: "stages[0].file",
		},
		{
			name: "wait_for without service",
			content: `stages:
  - file: env.yaml
    wait_for:
      - port: 2181
`,
			wantField: "stages[0].wait_for[0].service",
		},
		{
			name: "wait_for port out of range",
			content: `stages:
  - file: env.yaml
    wait_for:
      - service: zookeeper
        port: 70000
`,
			wantField: "stages[0].wait_for[0].port",
		},
		{
			name: "wait_for zero port",
			content: `stages:
  - file: env.yaml
    wait_for:
      - service: zookeeper
`,
			wantField: "stages[0].wait_for[0].port",
		},
		{
			name: "negative timeout",
			content: `stages:
  - file: env.yaml
    wait_for:
      - service: zookeeper
        port: 2181
        timeout: -5s
`,
			wantField: "stages[0].wait_for[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := writeFile(t, dir, "gangway.yaml", tt.content)

			_, err := NewLoader(cfgPath).Load()
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestNewLoaderDefaultPath(t *testing.T) {
	assert.Equal(t, ConfigFileName, NewLoader("").Path())
	assert.Equal(t, "custom.yaml", NewLoader("custom.yaml").Path())
}
