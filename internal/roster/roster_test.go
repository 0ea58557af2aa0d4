package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/testutil"
)

func TestLoadFile(t *testing.T) {
	f, err := LoadFile(filepath.Join("testdata", "club.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Club", f.Team)
	assert.Equal(t, testutil.Roster(), f.Roster())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		schema bool
	}{
		{
			name:   "unknown role",
			yaml:   "players:\n  - {id: p1, number: 1, name: Ana, role: GK}\n",
			schema: true,
		},
		{
			name:   "number out of range",
			yaml:   "players:\n  - {id: p1, number: 100, name: Ana, role: S}\n",
			schema: true,
		},
		{
			name:   "empty name",
			yaml:   "players:\n  - {id: p1, number: 1, name: \"\", role: S}\n",
			schema: true,
		},
		{
			name:   "bad id",
			yaml:   "players:\n  - {id: \"p 1\", number: 1, name: Ana, role: S}\n",
			schema: true,
		},
		{
			name:   "no players",
			yaml:   "team: Club\nplayers: []\n",
			schema: true,
		},
		{
			name:   "duplicate number",
			yaml:   "players:\n  - {id: p1, number: 7, name: Ana, role: S}\n  - {id: p2, number: 7, name: Berta, role: OH}\n",
			schema: true,
		},
		{
			name:   "duplicate id",
			yaml:   "players:\n  - {id: p1, number: 1, name: Ana, role: S}\n  - {id: p1, number: 2, name: Berta, role: OH}\n",
			schema: true,
		},
		{
			name: "unknown field",
			yaml: "players:\n  - {id: p1, number: 1, name: Ana, role: S, height: 180}\n",
		},
		{
			name: "not yaml",
			yaml: "players: [",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Equal(t, tt.schema, IsSchemaError(err), "err: %v", err)
		})
	}
}

func TestValidate_DuplicatePath(t *testing.T) {
	f := File{Players: testutil.Roster()}
	f.Players[3].Number = f.Players[0].Number

	err := Validate(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "players[3].number")
	assert.Contains(t, err.Error(), "also players[0]")
}
