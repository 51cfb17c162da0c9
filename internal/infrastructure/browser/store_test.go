package browser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
)

func TestScreenshotStore_SaveAndOpen(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "screenshots")
	clk := clock.NewFake(time.UnixMilli(1726221600123))
	store := NewScreenshotStore(dir, clk)

	img, err := store.Save(capture.Target{EntryID: 42, Gameweek: 3}, []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "team_42_gw3_1726221600123.png", img.Filename)
	assert.Equal(t, filepath.Join(dir, img.Filename), img.Path)

	onDisk, err := os.ReadFile(img.Path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(onDisk))

	got, err := store.Open(img.Filename)
	require.NoError(t, err)
	assert.Equal(t, onDisk, got)
}

func TestScreenshotStore_Rejects(t *testing.T) {
	t.Parallel()

	store := NewScreenshotStore(t.TempDir(), nil)

	_, err := store.Save(capture.Target{EntryID: 1, Gameweek: 1}, nil)
	assert.Error(t, err)

	for _, name := range []string{"", "../secret.png", "a/b.png", ".hidden"} {
		_, err := store.Open(name)
		assert.Error(t, err, name)
	}

	_, err = store.Open("team_1_gw1_1.png")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewScreenshotStore_DefaultDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Clean(DefaultScreenshotsDir), NewScreenshotStore("  ", nil).Dir())
}
