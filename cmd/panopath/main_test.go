package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)
	t.Cleanup(app.shutdown)

	dir := t.TempDir()
	config.Set("logsDir", dir)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", dir}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, appName+" "+BuildVersion)
}

func TestProjectCommand(t *testing.T) {
	out, err := execute(t, "project", "500", "0", "0", "--width", "100", "--height", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "u=0.500000 v=0.500000")
	assert.Contains(t, out, "pixel=(50.0, 25.0) in 100x50")

	_, err = execute(t, "project", "0", "0", "0")
	assert.Error(t, err)

	_, err = execute(t, "project", "a", "b", "c")
	assert.Error(t, err)
}

func TestPolylineCommand(t *testing.T) {
	out, err := execute(t, "project", "polyline", "[[0.9,0.5],[0.1,0.5]]")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `{"type":"MultiLineString"`), out)

	_, err = execute(t, "project", "polyline", "[[0.5,0.5]]")
	assert.Error(t, err)
}

func TestSessionConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	_, err := config.Load(t.TempDir())
	require.NoError(t, err)

	cfg, err := sessionConfig()
	require.NoError(t, err)
	assert.Equal(t, core.StrategySegmented, cfg.Strategy)
	assert.Equal(t, 500.0, cfg.Scene.SphereRadius)
	assert.Equal(t, 4096, cfg.Render.Width)

	config.Set("canvas.strategy", "spline")
	_, err = sessionConfig()
	assert.Error(t, err)
}
