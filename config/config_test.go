package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYaml = `
Addr: ":11111"
Server:
  ServerName: alpacahub
  Manufacturer: nasa-jpl
  ManufacturerVersion: "1.0"
  Location: dome
Devices:
  filterwheel:
    - Name: "main wheel"
      Addr: /dev/ttyUSB0
      Serial: true
      Type: generic
      Baud: 9600
      Args:
        Names: ["L", "R", "G", "B"]
        FocusOffsets: [0, 10, 20, 30]
  switch:
    - Name: "ppba"
      Addr: /dev/ttyUSB1
      Serial: true
      Type: pegasus_ppba
      Baud: 9600
`

func writeTempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYaml), 0644))
	return path
}

func TestLoadYamlParsesDeviceNodes(t *testing.T) {
	path := writeTempConfig(t)
	cfg, err := LoadYaml(path)
	require.NoError(t, err)

	assert.Equal(t, ":11111", cfg.Addr)
	assert.Equal(t, "alpacahub", cfg.Server.ServerName)

	require.Len(t, cfg.Devices["filterwheel"], 1)
	fw := cfg.Devices["filterwheel"][0]
	assert.Equal(t, "main wheel", fw.Name)
	assert.Equal(t, []string{"L", "R", "G", "B"}, fw.StringSliceArg("Names"))
	assert.Equal(t, []int32{0, 10, 20, 30}, fw.IntSliceArg("FocusOffsets"))

	require.Len(t, cfg.Devices["switch"], 1)
	assert.Equal(t, "pegasus_ppba", cfg.Devices["switch"][0].Type)
}

func TestLoadYamlMissingFile(t *testing.T) {
	_, err := LoadYaml("/nonexistent/path.yaml")
	require.Error(t, err)
}

func TestArgHelpersFallBackToDefault(t *testing.T) {
	o := ObjSetup{Args: map[string]interface{}{"Baud": 115200, "Enabled": true, "Scale": 1.5}}
	assert.Equal(t, 115200, o.IntArg("Baud", 9600))
	assert.Equal(t, 9600, o.IntArg("Missing", 9600))
	assert.True(t, o.BoolArg("Enabled", false))
	assert.False(t, o.BoolArg("Missing", false))
	assert.Equal(t, 1.5, o.FloatArg("Scale", 0))
	assert.Equal(t, "fallback", o.StringArg("Missing", "fallback"))
}
