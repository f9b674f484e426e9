package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, "Cargas", cfg.SharePoint.Lists.Loads)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cargas.yaml")
	content := `
server:
  port: "9090"
store:
  backend: sharepoint
sharepoint:
  tenant_id: tenant
  client_id: client
  client_secret: secret
  site_id: site
  lists:
    loads: CargasV2
fleet:
  source: webhook
  webhook_url: http://n8n.local/webhook/frota
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Server.Port, "env wins over file")
	assert.Equal(t, StoreSharePoint, cfg.Store.Backend)
	assert.Equal(t, "CargasV2", cfg.SharePoint.Lists.Loads)
	assert.Equal(t, "Origens", cfg.SharePoint.Lists.Origins, "unset keys keep defaults")
	assert.Equal(t, FleetWebhook, cfg.Fleet.Source)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = StoreSharePoint
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Fleet.Source = FleetWebhook
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Store.Backend = "excel"
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}

func TestListNamesIncludesExtra(t *testing.T) {
	sp := Default().SharePoint
	sp.Extra = map[string]string{"frota": "FrotaCache"}
	names := sp.ListNames()
	assert.Equal(t, "Restricoes", names["restrictions"])
	assert.Equal(t, "FrotaCache", names["frota"])
}

func TestFleetDSNFallback(t *testing.T) {
	cfg := Default()
	assert.Equal(t, cfg.Database.DSN, cfg.FleetDSN())
	cfg.Fleet.DSN = "postgres://fleet"
	assert.Equal(t, "postgres://fleet", cfg.FleetDSN())
}
