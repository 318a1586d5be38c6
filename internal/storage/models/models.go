package models

import "time"

// DocumentMetadata is the durable per-document record, keyed by file
// name. It is the only state the pipeline depends on besides the
// vector index, and its ClientID is the authority for ownership checks.
type DocumentMetadata struct {
	FileName   string
	ClientID   string
	UploadedAt time.Time
}

type ImageMetadata struct {
	SavedName    string
	OriginalName string
	ContentType  string
	Size         int64
	ClientID     string
	UploadedAt   time.Time
}
