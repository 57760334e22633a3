package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store accepts a binary blob and returns a retrievable URL plus a coarse
// media-type classification. The game core only consumes the URL.
type Store interface {
	Save(r io.Reader, filename, contentType string) (url, mediaType string, err error)
}

// MediaType classifies a MIME content type as video or audio; anything else
// is rejected by the upload handler.
func MediaType(contentType string) (string, bool) {
	switch {
	case strings.HasPrefix(contentType, "video/"):
		return "video", true
	case strings.HasPrefix(contentType, "audio/"):
		return "audio", true
	default:
		return "", false
	}
}

// DiskStore writes blobs under a local directory served at /uploads/.
type DiskStore struct {
	Dir string
}

// NewDiskStore ensures the upload directory exists.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	return &DiskStore{Dir: dir}, nil
}

// Save writes the blob with a unique name and returns its public URL.
func (s *DiskStore) Save(r io.Reader, filename, contentType string) (string, string, error) {
	mediaType, ok := MediaType(contentType)
	if !ok {
		return "", "", fmt.Errorf("unsupported content type %q", contentType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if mediaType == "video" {
			ext = ".mp4"
		} else {
			ext = ".m4a"
		}
	}
	prefix := "aud"
	if mediaType == "video" {
		prefix = "vid"
	}
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext)

	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", "", err
	}

	return "/uploads/" + name, mediaType, nil
}
