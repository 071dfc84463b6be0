package areas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, r.Len())

	alpha, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "Race Area Alpha", alpha.Name)
	assert.Equal(t, "SCHEVNGN", alpha.TideStationCode)
	assert.InDelta(t, 52.1258, alpha.Lat, 1e-9)

	// Some areas rely on nearest-station resolution.
	delta, ok := r.Get("delta")
	require.True(t, ok)
	assert.Empty(t, delta.TideStationCode)

	all := r.All()
	require.Len(t, all, 7)
	assert.Equal(t, "alpha", all[0].Key)
	assert.Equal(t, "golf", all[6].Key)
}

func TestLoadFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.json")
	data := `[{"key":"kiel-a","name":"Kiel Alpha","lat":54.43,"lon":10.19,"radius_km":1.0}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	r, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, r.Len())
	area, ok := r.Get("kiel-a")
	require.True(t, ok)
	assert.Equal(t, "Kiel Alpha", area.Name)

	_, ok = r.Get("alpha")
	assert.False(t, ok, "embedded defaults must not leak through an override")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read areas file")
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed JSON", `{not json`, "parse areas"},
		{"empty list", `[]`, "no race areas"},
		{"missing key", `[{"name":"X","lat":52,"lon":4}]`, "has no key"},
		{"duplicate key", `[{"key":"a","lat":52,"lon":4},{"key":"a","lat":52,"lon":4}]`, "duplicate"},
		{"latitude out of range", `[{"key":"a","lat":95,"lon":4}]`, "out of range"},
		{"longitude out of range", `[{"key":"a","lat":52,"lon":-190}]`, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestGetUnknownKey(t *testing.T) {
	r, err := Load("")
	require.NoError(t, err)

	_, ok := r.Get("zulu")
	assert.False(t, ok)
}
