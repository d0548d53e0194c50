package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is the blob-store surface the rest of the system sees. The byte
// mechanics behind it are interchangeable; content records only carry the id.
// Ids may also be legacy filesystem-style paths, which Open must accept.
type Store interface {
	Save(file *multipart.FileHeader) (string, error)
	Remove(id string) error
	Open(id string) (io.ReadCloser, error)
	Path(id string) string
}

// DiskStore keeps blobs in a flat directory with uuid names.
type DiskStore struct {
	Dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{Dir: dir}
}

// Save copies the uploaded file under a fresh unique id. Each upload gets its
// own identity, so no coordination with readers is needed.
func (s *DiskStore) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}

	id := uuid.NewString() + filepath.Ext(file.Filename)
	dst, err := os.Create(filepath.Join(s.Dir, id))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return id, nil
}

func (s *DiskStore) Remove(id string) error {
	return os.Remove(s.Path(id))
}

func (s *DiskStore) Open(id string) (io.ReadCloser, error) {
	return os.Open(s.Path(id))
}

// Path maps an id to a file path. Legacy records address binaries by a full
// filesystem-style path rather than a blob id; both must keep working.
func (s *DiskStore) Path(id string) string {
	if strings.ContainsAny(id, "/\\") {
		return id
	}
	return filepath.Join(s.Dir, id)
}
