// Package files implements the storage layer: root-confined path
// resolution, collision-safe naming, the upload pipeline, tree walking and
// zip export. All operations are stateless; the filesystem is the only
// shared state.
package files

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"smartdrive/internal/classify"
	"smartdrive/internal/models"
	"smartdrive/internal/rules"
	"smartdrive/internal/thumbs"
)

// ThumbDirName is the hidden subtree mirroring the storage tree with one
// JPEG per eligible source file.
const ThumbDirName = ".thumbnails"

// UncategorizedFolder labels files sitting directly at the storage root.
const UncategorizedFolder = "Uncategorized"

var (
	// ErrInvalidPath marks a client path that escapes the storage root.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNotFound marks a missing file or folder.
	ErrNotFound = errors.New("not found")
)

// Service owns a single storage root. Rules are consulted on every upload;
// Thumbs is optional and failures there never affect the upload result.
type Service struct {
	Root   string
	Rules  *rules.Store
	Thumbs *thumbs.Generator
}

func NewService(root string, ruleStore *rules.Store, gen *thumbs.Generator) (*Service, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &Service{Root: abs, Rules: ruleStore, Thumbs: gen}, nil
}

// Resolve maps a client-supplied relative path to an absolute path strictly
// confined to the storage root. Leading slashes are stripped so absolute
// inputs are treated as relative; the result is canonicalized and anything
// not equal to or under the root fails with ErrInvalidPath. Resolving to
// exactly the root is accepted; callers check file-ness separately.
func (s *Service) Resolve(rel string) (string, error) {
	cleaned := path.Clean(strings.TrimLeft(filepath.ToSlash(rel), "/"))
	if cleaned == "." {
		cleaned = ""
	}

	root := s.Root
	if resolved, err := filepath.EvalSymlinks(s.Root); err == nil {
		root = resolved
	}

	abs := filepath.Join(root, filepath.FromSlash(cleaned))
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	} else if resolvedParent, perr := filepath.EvalSymlinks(filepath.Dir(abs)); perr == nil {
		// Upload targets do not exist yet; canonicalize the parent instead.
		abs = filepath.Join(resolvedParent, filepath.Base(abs))
	}

	if abs != root && !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	return abs, nil
}

// UniqueName returns name if no entry with that name exists in dir, else the
// first free "stem (n)ext" for n = 1, 2, ... Each call re-checks the
// filesystem, so a batch of same-named uploads disambiguates sequentially.
// Two processes racing on the same name can still collide; accepted
// limitation. Stat failures other than non-existence are returned rather
// than treated as a free slot, so a transient error never picks a name that
// would overwrite an existing file.
func UniqueName(dir, name string) (string, error) {
	taken, err := nameTaken(dir, name)
	if err != nil {
		return "", err
	}
	if !taken {
		return name, nil
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, n, ext)
		taken, err := nameTaken(dir, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}

func nameTaken(dir, name string) (bool, error) {
	if _, err := os.Lstat(filepath.Join(dir, name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SanitizeFilename strips directory components and unsafe characters from a
// client-supplied filename. An empty result falls back to "file".
func SanitizeFilename(name string) string {
	name = filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20, r == 0x7f:
		case strings.ContainsRune(`<>:"/\|?*`, r):
		default:
			b.WriteRune(r)
		}
	}

	name = strings.Trim(b.String(), " .")
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// Store runs the upload pipeline for one file: sanitize, categorize against
// a fresh rule load, ensure the category folder, pick a collision-free name,
// write the content and generate a best-effort thumbnail.
func (s *Service) Store(filename string, r io.Reader) (models.FileInfo, error) {
	name := SanitizeFilename(filename)
	category := classify.Categorize(name, s.Rules.Load())

	dir := filepath.Join(s.Root, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return models.FileInfo{}, fmt.Errorf("failed to create category folder %s: %w", category, err)
	}

	name, err := UniqueName(dir, name)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("failed to pick a free name in %s: %w", category, err)
	}
	dst := filepath.Join(dir, name)

	out, err := os.Create(dst)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dst)
		return models.FileInfo{}, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return models.FileInfo{}, fmt.Errorf("failed to write %s: %w", dst, err)
	}

	if s.Thumbs != nil && thumbs.Eligible(filepath.Ext(name)) {
		if err := s.Thumbs.Generate(dst, s.thumbPath(category, name)); err != nil {
			log.Printf("Thumbnail generation failed for %s: %v", dst, err)
		}
	}

	return s.Info(dst)
}

// Delete removes a stored file, its thumbnail and, when the file was the
// last one in its category, the now-empty folders. Only the primary
// removal is authoritative; cleanup failures are logged and swallowed.
func (s *Service) Delete(rel string) error {
	abs, err := s.Resolve(rel)
	if err != nil {
		return err
	}

	fi, err := os.Stat(abs)
	if err != nil || !fi.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("failed to delete %s: %w", rel, err)
	}

	category, name := s.split(abs)
	thumb := s.thumbPath(category, name)
	if err := os.Remove(thumb); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove thumbnail %s: %v", thumb, err)
	}
	if category != UncategorizedFolder {
		// Prune empty dirs; os.Remove refuses non-empty ones. Root-level
		// files have no category folder to prune.
		os.Remove(filepath.Dir(thumb))
		os.Remove(filepath.Dir(abs))
	}
	return nil
}

// Info builds the metadata record for one stored file.
func (s *Service) Info(abs string) (models.FileInfo, error) {
	fi, err := os.Stat(abs)
	if err != nil {
		return models.FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, abs)
	}

	category, name := s.split(abs)
	relPath := name
	if category != UncategorizedFolder {
		relPath = category + "/" + name
	}

	created, accessed, modified := fileTimes(fi)
	info := models.FileInfo{
		Name:           name,
		RelativePath:   relPath,
		Category:       category,
		SizeBytes:      fi.Size(),
		CreatedTime:    created,
		LastAccessTime: accessed,
		ModifiedTime:   modified,
	}

	thumb := s.thumbPath(category, name)
	if _, err := os.Stat(thumb); err == nil {
		rel := filepath.ToSlash(strings.TrimPrefix(thumb, s.Root+string(os.PathSeparator)))
		info.Thumbnail = &rel
	}
	return info, nil
}

// split derives (category, name) from an absolute path under the root. The
// category is the first path segment; files at the root itself are
// Uncategorized.
func (s *Service) split(abs string) (category, name string) {
	rel, err := filepath.Rel(s.Root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Resolved paths live under the resolved root when the root is a
		// symlink.
		if resolved, rerr := filepath.EvalSymlinks(s.Root); rerr == nil {
			rel, err = filepath.Rel(resolved, abs)
		}
	}
	if err != nil || strings.HasPrefix(rel, "..") {
		return UncategorizedFolder, filepath.Base(abs)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return UncategorizedFolder, parts[0]
	}
	return parts[0], parts[len(parts)-1]
}

// thumbPath maps a stored file to its slot in the thumbnail mirror tree.
// Root-level files mirror to the top of the tree.
func (s *Service) thumbPath(category, name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if category == UncategorizedFolder {
		return filepath.Join(s.Root, ThumbDirName, stem+".jpg")
	}
	return filepath.Join(s.Root, ThumbDirName, category, stem+".jpg")
}
