package usecase

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"regexp"

	"github.com/valyala/bytebufferpool"
)

var screenshotNamePattern = regexp.MustCompile(`^team_\d+_gw\d+_\d+\.png$`)

const dataURLPrefix = "data:image/png;base64,"

// ScreenshotService serves persisted captures by filename.
type ScreenshotService struct {
	store ImageStore
}

func NewScreenshotService(store ImageStore) *ScreenshotService {
	return &ScreenshotService{store: store}
}

func ValidScreenshotName(name string) bool {
	return screenshotNamePattern.MatchString(name)
}

func (s *ScreenshotService) Image(filename string) ([]byte, error) {
	if !ValidScreenshotName(filename) {
		return nil, fmt.Errorf("%w: invalid screenshot filename", ErrInvalidInput)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: screenshot store is not configured", ErrDependencyUnavailable)
	}

	data, err := s.store.Open(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: screenshot=%s", ErrNotFound, filename)
		}
		return nil, fmt.Errorf("read screenshot=%s: %w", filename, err)
	}
	return data, nil
}

// DataURL returns the capture as a data:image/png;base64 URL.
func (s *ScreenshotService) DataURL(filename string) (string, error) {
	data, err := s.Image(filename)
	if err != nil {
		return "", err
	}
	return EncodeDataURL(data), nil
}

func EncodeDataURL(png []byte) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(dataURLPrefix)
	enc := base64.NewEncoder(base64.StdEncoding, buf)
	_, _ = enc.Write(png)
	_ = enc.Close()
	return buf.String()
}
