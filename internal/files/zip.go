package files

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteZip streams a zip archive of one category folder to w. The thumbnail
// subtree is never included, even if a stray copy exists inside the folder.
func (s *Service) WriteZip(w io.Writer, folder string) error {
	if folder == "" || strings.ContainsAny(folder, `/\`) || folder == ThumbDirName {
		return fmt.Errorf("%w: %s", ErrInvalidPath, folder)
	}

	abs, err := s.Resolve(folder)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(abs); err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotFound, folder)
	}

	zw := zip.NewWriter(w)

	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
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

		rel, err := filepath.Rel(abs, p)
		if err != nil {
			return nil
		}
		return addToZip(zw, p, filepath.ToSlash(filepath.Join(folder, rel)))
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func addToZip(zw *zip.Writer, src, zipPath string) error {
	f, err := os.Open(src)
	if err != nil {
		return nil
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil
	}

	hdr, err := zip.FileInfoHeader(fi)
	if err != nil {
		return err
	}
	hdr.Name = zipPath
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
