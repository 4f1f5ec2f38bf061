package files

import (
	"io/fs"
	"log"
	"path/filepath"

	"smartdrive/internal/models"
)

// List enumerates every regular file under the storage root, excluding the
// thumbnail subtree entirely. Traversal order is filesystem-dependent;
// callers must not assume ordering.
func (s *Service) List() ([]models.FileInfo, error) {
	infos := make([]models.FileInfo, 0)

	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("Skipping %s: %v", p, err)
			return nil
		}
		if d.IsDir() {
			if d.Name() == ThumbDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := s.Info(p)
		if err != nil {
			log.Printf("Skipping %s: %v", p, err)
			return nil
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return infos, nil
}

// Stats sums size and count over the same set of files List reports.
func (s *Service) Stats(maxBytes int64) (models.Stats, error) {
	stats := models.Stats{MaxBytes: maxBytes}

	err := filepath.WalkDir(s.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ThumbDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			stats.TotalBytes += fi.Size()
			stats.TotalFiles++
		}
		return nil
	})
	if err != nil {
		return models.Stats{}, err
	}
	return stats, nil
}
