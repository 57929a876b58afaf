package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScoreFromStdin(t *testing.T) {
	out, err := execute(t, strings.TrimSpace(strings.Repeat("3 ", 50)), "score")
	require.NoError(t, err)
	assert.Equal(t, "Medium-Medium-Medium-Medium-Medium\n", out)
}

func TestScoreFromJSONFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "answers.json")
	vals := make([]string, 50)
	for i := range vals {
		vals[i] = "3"
	}
	require.NoError(t, os.WriteFile(p, []byte("["+strings.Join(vals, ",")+"]"), 0o644))

	out, err := execute(t, "", "score", "--averages", p)
	require.NoError(t, err)
	assert.Contains(t, out, "openness")
	assert.True(t, strings.HasSuffix(out, "Medium-Medium-Medium-Medium-Medium\n"))
}

func TestScoreIncomplete(t *testing.T) {
	_, err := execute(t, "3 3 3", "score")
	assert.EqualError(t, err, "please answer all questions")

	_, err = execute(t, "3 x", "score")
	assert.Error(t, err)
}

func TestFreeCodeGenerateAndList(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "ctl.db"))

	out, err := execute(t, "", "freecode", "generate", "-n", "2")
	require.NoError(t, err)
	codes := strings.Fields(out)
	require.Len(t, codes, 2)
	for _, c := range codes {
		assert.Regexp(t, `^[0-9A-F]{8}$`, c)
	}

	out, err = execute(t, "", "freecode", "list")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "unused"))
}

func TestArchetypesCheck(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BLOB_BASE_PATH", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "archetypes.yaml"),
		[]byte("Low-Low-Low-Low-Low: Aquashine\nHigh-High-High-High-High: Sunforge\n"), 0o644))

	out, err := execute(t, "", "archetypes", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 archetypes")
	assert.Contains(t, out, "Missing 241 of 243 codes")
	assert.NotContains(t, out, "Low-Low-Low-Low-Low\n")

	_, err = execute(t, "", "archetypes", "check", "--strict")
	assert.Error(t, err)
}

func TestArchetypesImport(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BLOB_BASE_PATH", dir)
	src := filepath.Join(t.TempDir(), "export.txt")
	require.NoError(t, os.WriteFile(src, []byte(
		"Openness: High | Conscientiousness: Low | Extraversion: Low | Agreeableness: Low | Neuroticism: High\n"+
			"Archetype: Storm Glass\nFeels the pressure change first.\n"), 0o644))

	out, err := execute(t, "", "archetypes", "import", src)
	require.NoError(t, err)
	assert.Equal(t, "Stored archetypes.txt (1 archetypes)\n", out)
	_, err = os.Stat(filepath.Join(dir, "archetypes.txt"))
	require.NoError(t, err)

	out, err = execute(t, "", "archetypes", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Missing 242 of 243 codes")

	_, err = execute(t, "", "archetypes", "import", filepath.Join(dir, "notes.docx"))
	assert.ErrorContains(t, err, "unsupported archetype file")
}
