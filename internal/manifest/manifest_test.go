package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`{
		"name": "@acme/foo-mcp",
		"version": "1.2.3",
		"description": "memory server for agents",
		"dependencies": {"@modelcontextprotocol/sdk": "^1.0.0", "zod": "^3.0.0"},
		"devDependencies": {"typescript": "^5.0.0"}
	}`)

	m, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, "@acme/foo-mcp", m.Name)
	require.Equal(t, "^1.0.0", m.Dependencies["@modelcontextprotocol/sdk"])
	require.Equal(t, "^5.0.0", m.DevDependencies["typescript"])
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"name": `))
	require.Error(t, err)
}

func TestHasDependency(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		want     bool
	}{
		{
			name:     "runtime dependency",
			manifest: Manifest{Dependencies: map[string]string{"@modelcontextprotocol/sdk": "^1.0.0"}},
			want:     true,
		},
		{
			name:     "dev dependency",
			manifest: Manifest{DevDependencies: map[string]string{"@modelcontextprotocol/sdk": "~0.9"}},
			want:     true,
		},
		{
			name:     "peer dependency",
			manifest: Manifest{PeerDependencies: map[string]string{"@modelcontextprotocol/sdk": "*"}},
			want:     true,
		},
		{
			name:     "absent",
			manifest: Manifest{Dependencies: map[string]string{"express": "^4.0.0"}},
			want:     false,
		},
		{
			name:     "nil maps",
			manifest: Manifest{},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.manifest.HasDependency("@modelcontextprotocol/sdk"))
		})
	}
}
