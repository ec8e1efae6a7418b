package errorcodes

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
version: 1
protocols:
  - name: Anchor
    program_id: "*"
    version: 0.30.1
    type: framework
    errors: anchor.json
  - name: Demo
    program_id: Demo111111111111111111111111111111111111111
    version: 0.1.0
    type: program
    errors: demo.json
`

func TestBuildProtocolsFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"catalog/protocols.yaml": {Data: []byte(testManifest)},
		"catalog/anchor.json":    {Data: []byte(`{"errors":[{"code":100,"name":"InstructionMissing","msg":"8 byte instruction identifier not provided"}]}`)},
		"catalog/demo.json":      {Data: []byte(`{"errors":[{"code":6000,"name":"DemoError","msg":"demo"}]}`)},
	}

	protocols, err := BuildProtocols(fsys, "catalog/protocols.yaml")
	require.NoError(t, err)
	require.Len(t, protocols, 2)
	assert.True(t, protocols[0].IsFramework())
	assert.Equal(t, "Demo", protocols[1].Name)

	r := NewRegistry()
	require.NoError(t, LoadInto(r, fsys, "catalog/protocols.yaml"))
	got := r.Resolve("Demo111111111111111111111111111111111111111", 6000)
	require.NotNil(t, got)
	assert.Equal(t, "DemoError", got.Name)
}

func TestBuildProtocolsMissingErrorsFile(t *testing.T) {
	fsys := fstest.MapFS{
		"protocols.yaml": {Data: []byte(testManifest)},
		"anchor.json":    {Data: []byte(`{"errors":[]}`)},
	}
	_, err := BuildProtocols(fsys, "protocols.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Demo"`)
}

func TestManifestValidate(t *testing.T) {
	const demoID = "Demo111111111111111111111111111111111111111"
	tests := []struct {
		name    string
		m       Manifest
		wantErr string
	}{
		{
			name: "ok",
			m: Manifest{Protocols: []ProtocolConfig{
				{Name: "Anchor", ProgramID: "*", Type: ProtocolTypeFramework},
				{Name: "Demo", ProgramID: demoID},
			}},
		},
		{
			name:    "missing name",
			m:       Manifest{Protocols: []ProtocolConfig{{ProgramID: demoID}}},
			wantErr: "missing name",
		},
		{
			name: "duplicate name",
			m: Manifest{Protocols: []ProtocolConfig{
				{Name: "Demo", ProgramID: demoID},
				{Name: "Demo", ProgramID: "11111111111111111111111111111111"},
			}},
			wantErr: "duplicate name",
		},
		{
			name: "duplicate program id",
			m: Manifest{Protocols: []ProtocolConfig{
				{Name: "A", ProgramID: demoID},
				{Name: "B", ProgramID: demoID},
			}},
			wantErr: "already used",
		},
		{
			name:    "invalid base58",
			m:       Manifest{Protocols: []ProtocolConfig{{Name: "A", ProgramID: "0OIl"}}},
			wantErr: "invalid program_id",
		},
		{
			name:    "framework with concrete id",
			m:       Manifest{Protocols: []ProtocolConfig{{Name: "Anchor", ProgramID: demoID, Type: ProtocolTypeFramework}}},
			wantErr: "framework must use",
		},
		{
			name: "two frameworks",
			m: Manifest{Protocols: []ProtocolConfig{
				{Name: "A", ProgramID: "*", Type: ProtocolTypeFramework},
				{Name: "B", ProgramID: "*", Type: ProtocolTypeFramework},
			}},
			wantErr: "at most one",
		},
		{
			name:    "unknown type",
			m:       Manifest{Protocols: []ProtocolConfig{{Name: "A", ProgramID: demoID, Type: "plugin"}}},
			wantErr: "unknown type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmbeddedManifestValid(t *testing.T) {
	m, err := LoadManifest(embeddedData, DefaultManifest)
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, 1, m.Version)
	assert.Len(t, m.Protocols, 13)
}

func TestMustNewDefaultRegistry(t *testing.T) {
	var r *Registry
	require.NotPanics(t, func() { r = MustNewDefaultRegistry() })
	assert.NotEmpty(t, r.Protocols())
	assert.NotNil(t, r.Framework())
}
