package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fantasy-capture/internal/domain/capture"
	"github.com/riskibarqy/fantasy-capture/internal/platform/clock"
)

const DefaultScreenshotsDir = "./screenshots"

// ScreenshotStore persists captures as team_{entry}_gw{gameweek}_{millis}.png.
type ScreenshotStore struct {
	dir   string
	clock clock.Clock
}

func NewScreenshotStore(dir string, clk clock.Clock) *ScreenshotStore {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = DefaultScreenshotsDir
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &ScreenshotStore{dir: filepath.Clean(dir), clock: clk}
}

func (s *ScreenshotStore) Dir() string {
	return s.dir
}

func Filename(entryID int64, gameweek int, epochMillis int64) string {
	return fmt.Sprintf("team_%d_gw%d_%d.png", entryID, gameweek, epochMillis)
}

// Save creates the directory on first use.
func (s *ScreenshotStore) Save(target capture.Target, png []byte) (capture.Image, error) {
	if len(png) == 0 {
		return capture.Image{}, crerr.New("screenshot buffer is empty")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return capture.Image{}, crerr.Wrapf(err, "create screenshots dir %q", s.dir)
	}

	name := Filename(target.EntryID, target.Gameweek, s.clock.Now().UnixMilli())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return capture.Image{}, crerr.Wrapf(err, "write screenshot %q", path)
	}

	return capture.Image{Filename: name, Path: path, PNG: png}, nil
}

// Open reads a stored capture. Names with path elements are rejected.
func (s *ScreenshotStore) Open(filename string) ([]byte, error) {
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return nil, crerr.Newf("invalid screenshot filename %q", filename)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return nil, crerr.Wrapf(err, "read screenshot %q", filename)
	}
	return data, nil
}
