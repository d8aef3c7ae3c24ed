package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func source(name, lang, base string) string {
	return "package ireader.x\n" +
		"override val name = \"" + name + "\"\n" +
		"override val lang = \"" + lang + "\"\n" +
		"override val baseUrl = \"" + base + "\"\n"
}

func newTestCatalog(t *testing.T) (*Catalog, string) {
	root := t.TempDir()
	writeSource(t, root, "en/bestlightnovel/main/src/BestLightNovel.kt", source("BestLightNovel", "en", "https://bestlightnovel.com"))
	writeSource(t, root, "en/lightnovelpub/main/src/LightNovelPub.kt", source("LightNovelPub", "en", "https://lightnovelpub.com"))
	writeSource(t, root, "en/lightnovelpub/main/src/Helpers.kt", "package ireader.x\nobject Helpers")
	writeSource(t, root, "tu/novelgecesi/main/src/NovelGecesi.kt", novelGecesi)
	writeSource(t, root, "multisrc/madara/src/MadaraTemplate.kt", source("Madara", "en", "https://madara.example"))
	writeSource(t, root, "en/bestlightnovel/build/generated/Stale.kt", source("Stale", "en", "https://stale.example"))
	writeSource(t, root, "en/bestlightnovel/README.md", "not kotlin")
	return NewCatalog(root, NewParser("en", nil), nil), root
}

func TestDiscover(t *testing.T) {
	cat, root := newTestCatalog(t)
	ctx := context.Background()

	all, err := cat.Discover(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)
	assert.NotContains(t, all, filepath.Join(root, "en/bestlightnovel/build/generated/Stale.kt"))

	tu, err := cat.Discover(ctx, "tu")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "multisrc/madara/src/MadaraTemplate.kt"),
		filepath.Join(root, "tu/novelgecesi/main/src/NovelGecesi.kt"),
	}, tu)
}

func TestParseAllFiltersLanguageAndNonSources(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()

	en, err := cat.ParseAll(ctx, "en")
	require.NoError(t, err)
	var names []string
	for _, d := range en {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"BestLightNovel", "LightNovelPub", "Madara"}, names)

	tu, err := cat.ParseAll(ctx, "tu")
	require.NoError(t, err)
	require.Len(t, tu, 1, "multisrc sources with another lang are filtered out")
	assert.Equal(t, "Novel Gecesi", tu[0].Name)
}

func TestFindByName(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx := context.Background()

	tests := []struct {
		query string
		want  string
	}{
		{"bestlightnovel", "BestLightNovel"},
		{"LIGHTNOVELPUB", "LightNovelPub"},
		{"gecesi", "Novel Gecesi"},
		{"Novel Gecesi", "Novel Gecesi"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			def, err := cat.FindByName(ctx, tt.query, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, def.Name)
		})
	}

	_, err := cat.FindByName(ctx, "nowhere", "")
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestDiscoverCancelled(t *testing.T) {
	cat, _ := newTestCatalog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cat.Discover(ctx, "")
	assert.Error(t, err)
}
