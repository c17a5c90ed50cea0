package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/aclmake/internal/domain/entities"
)

func TestRenderManifest(t *testing.T) {
	m := &entities.Manifest{
		Configs: []string{"default.config.sjson", "nested/uniform.config.sjson"},
		Clips:   []string{"clips/b.acl.sjson", "a.acl.sjson"},
	}

	want := "configs = [\n" +
		"\t\"default.config.sjson\"\n" +
		"\t\"nested/uniform.config.sjson\"\n" +
		"]\n" +
		"\n" +
		"clips = [\n" +
		"\t\"clips/b.acl.sjson\"\n" +
		"\t\"a.acl.sjson\"\n" +
		"]\n"

	assert.Equal(t, want, string(RenderManifest(m)))
}

func TestRenderManifest_Empty(t *testing.T) {
	got := RenderManifest(&entities.Manifest{})
	assert.Equal(t, "configs = [\n]\n\nclips = [\n]\n", string(got))
}

func TestBuildManifest_Reproducible(t *testing.T) {
	root := t.TempDir()
	writeSized(t, root, map[string]int{
		"clips/small.acl.sjson":       5,
		"clips/large.acl.sjson":       50,
		"other/medium.acl.sjson":      20,
		"configs/b.config.sjson":      1,
		"configs/deep/a.config.sjson": 1,
	})

	render := func() []byte {
		corpus, err := NewCorpusIndex(nil).Discover(context.Background(), CorpusOptions{
			Root:           root,
			ConfigRoot:     filepath.Join(root, "configs"),
			RequireConfigs: true,
		})
		require.NoError(t, err)
		m, err := BuildManifest(corpus)
		require.NoError(t, err)
		return RenderManifest(m)
	}

	first := render()
	second := render()
	assert.Equal(t, first, second, "manifest must be byte-identical across runs")

	m := &entities.Manifest{
		Configs: []string{"deep/a.config.sjson", "b.config.sjson"},
		Clips:   []string{"clips/large.acl.sjson", "other/medium.acl.sjson", "clips/small.acl.sjson"},
	}
	assert.Equal(t, string(RenderManifest(m)), string(first))
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), entities.ManifestFileName)
	m := &entities.Manifest{Clips: []string{"a.acl.sjson"}}

	require.NoError(t, WriteManifest(path, m))

	//nolint:gosec // G304: test file path
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, RenderManifest(m), got)

	assert.Error(t, WriteManifest(filepath.Join(t.TempDir(), "missing", "metadata.sjson"), m))
}
