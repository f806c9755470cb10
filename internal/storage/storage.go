package storage

import (
	"mime/multipart"
)

type FileInfo struct {
	Filename    string
	ContentType string
	Size        int64
}

// Storage holds images uploaded for ad-hoc detection.
type Storage interface {
	SaveFile(file multipart.File, info FileInfo) (string, error)
	Path(name string) (string, error)
	DeleteFile(name string) error
	Close() error
}
