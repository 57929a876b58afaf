package archetype

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-bigfive/internal/quiz"
	"github.com/mind-engage/mindengage-bigfive/internal/storage"
)

const export = `Big Five Archetypes

Openness: High | Conscientiousness: Medium | Extraversion: Low | Agreeableness: Medium | Neuroticism: High
Archetype: The Night Cartographer
Maps inner weather with care.
Prefers quiet rooms.

openness – low conscientiousness - LOW extraversion: low agreeableness: low neuroticism: low

Archetype: Stillwater
Rarely stirred.
Openness: Medium | Conscientiousness: Medium | Extraversion: Medium | Agreeableness: Medium | Neuroticism: Medium
No name line follows.
`

func newStore(t *testing.T, files map[string]string) storage.BlobStore {
	t.Helper()
	bs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)
	for k, v := range files {
		_, err := bs.Put(k, strings.NewReader(v))
		require.NoError(t, err)
	}
	return bs
}

func TestLoadParsesTextExport(t *testing.T) {
	c, err := Load(newStore(t, map[string]string{TextKey: export}), zap.NewNop())
	require.NoError(t, err)

	e := c.Lookup("High-Medium-Low-Medium-High")
	assert.Equal(t, "The Night Cartographer", e.Name)
	assert.Equal(t, "Maps inner weather with care.\nPrefers quiet rooms.", e.Detail)

	e = c.Lookup("Low-Low-Low-Low-Low")
	assert.Equal(t, "Stillwater", e.Name, "name within three lines of the header")
	assert.Equal(t, "Rarely stirred.", e.Detail)

	e = c.Lookup(quiz.NeutralCode)
	assert.True(t, strings.HasPrefix(e.Name, "Unknown_"))
	assert.Equal(t, "No name line follows.", e.Detail)

	assert.Equal(t, 3, c.Len())
	assert.Len(t, c.Missing(), 240)
}

func TestLoadOverridesNames(t *testing.T) {
	c, err := Load(newStore(t, map[string]string{
		TextKey:           export,
		"archetypes.json": `{"high-medium-low-medium-high": "Cartographer", "bogus": "x", "High-High-High-High-High": "Sunburst"}`,
	}), zap.NewNop())
	require.NoError(t, err)

	e := c.Lookup("High-Medium-Low-Medium-High")
	assert.Equal(t, "Cartographer", e.Name)
	assert.Equal(t, "Maps inner weather with care.\nPrefers quiet rooms.", e.Detail)

	e = c.Lookup("High-High-High-High-High")
	assert.Equal(t, "Sunburst", e.Name)
	assert.Equal(t, MissingDetail, e.Detail)
}

func TestLoadFallsBackWhenEmpty(t *testing.T) {
	c, err := Load(newStore(t, nil), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "Aquashine", c.Lookup("Low-Low-Low-Low-Low").Name)
	e := c.Lookup("High-Low-High-Low-High")
	assert.Equal(t, UnknownName, e.Name)
	assert.Equal(t, MissingDetail, e.Detail)
}
