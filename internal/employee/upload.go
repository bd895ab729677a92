package employee

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Upload is a profile picture attached to a draft. ContentType is sniffed
// from the file content, not taken from the client.
type Upload struct {
	Filename    string
	Size        int64  `validate:"max=2097152"`
	ContentType string `validate:"required,oneof=image/jpeg image/png image/gif image/webp"`

	open func() (io.ReadCloser, error)
}

// Open returns a fresh reader over the upload content.
func (u *Upload) Open() (io.ReadCloser, error) {
	if u.open == nil {
		return nil, fmt.Errorf("upload %q has no content", u.Filename)
	}
	return u.open()
}

// UploadFromBytes builds an upload over an in-memory payload.
func UploadFromBytes(filename string, data []byte) *Upload {
	return &Upload{
		Filename:    filename,
		Size:        int64(len(data)),
		ContentType: contentType(mimetype.Detect(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// InspectUpload reads the head of a multipart file to detect its type.
func InspectUpload(fh *multipart.FileHeader) (*Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, fmt.Errorf("detect upload type: %w", err)
	}

	return &Upload{
		Filename:    filepath.Base(fh.Filename),
		Size:        fh.Size,
		ContentType: contentType(mt),
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}, nil
}

// UploadFromFile inspects a file on disk.
func UploadFromFile(path string) (*Upload, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("upload %s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect upload type: %w", err)
	}

	return &Upload{
		Filename:    filepath.Base(path),
		Size:        st.Size(),
		ContentType: contentType(mt),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func contentType(mt *mimetype.MIME) string {
	ct, _, _ := strings.Cut(mt.String(), ";")
	return strings.TrimSpace(ct)
}
