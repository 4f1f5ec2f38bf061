package models

// FileInfo represents stored file metadata as returned by the API.
// Timestamps are ISO-8601 strings derived from filesystem metadata.
type FileInfo struct {
	Name           string  `json:"name"`
	RelativePath   string  `json:"relative_path"`
	Category       string  `json:"category"`
	Thumbnail      *string `json:"thumbnail"`
	SizeBytes      int64   `json:"size_bytes"`
	CreatedTime    string  `json:"created_time"`
	LastAccessTime string  `json:"last_access_time"`
	ModifiedTime   string  `json:"modified_time"`
}

// Stats aggregates storage usage for the stats endpoint. MaxBytes is an
// advisory quota, reported but never enforced.
type Stats struct {
	TotalBytes int64 `json:"total_bytes"`
	TotalFiles int   `json:"total_files"`
	MaxBytes   int64 `json:"max_bytes"`
}
