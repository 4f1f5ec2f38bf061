// Package classify decides the category folder for a filename. Custom rules
// take precedence over the built-in groups; the built-in table is ordered and
// first match wins.
package classify

import (
	"path/filepath"
	"strings"

	"smartdrive/internal/rules"
)

// Group pairs a category label with the extensions it claims.
type Group struct {
	Label      string
	Extensions []string
}

// BuiltinGroups is the fixed classification table. Table order is part of the
// contract: the first group claiming an extension wins.
var BuiltinGroups = []Group{
	{"MS Word", []string{".doc", ".docx", ".odt", ".rtf"}},
	{"PDF", []string{".pdf"}},
	{"MS Excel", []string{".xls", ".xlsx", ".csv", ".ods"}},
	{"MS PowerPoint", []string{".ppt", ".pptx", ".odp"}},
	{"Images", []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", ".svg", ".ico", ".tiff", ".heic"}},
	{"Audio", []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a", ".wma"}},
	{"Video", []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".wmv", ".flv", ".m4v"}},
	{"Text", []string{".txt", ".md", ".log"}},
	{"Code", []string{".py", ".go", ".js", ".ts", ".html", ".css", ".json", ".xml", ".yaml", ".yml", ".sh", ".c", ".cpp", ".h", ".java", ".rb", ".rs", ".sql"}},
	{"Archives", []string{".zip", ".tar", ".gz", ".rar", ".7z", ".bz2", ".xz"}},
	{"Executables", []string{".exe", ".msi", ".dmg", ".pkg", ".deb", ".rpm", ".apk", ".app"}},
}

// DefaultFolder is the category for files without an extension.
const DefaultFolder = "Other"

// Categorize returns the destination folder for filename. Decision order:
// first matching custom rule (insertion order), first matching built-in
// group, "<EXT> Files" for unknown extensions, "Other" for none. Pure and
// deterministic for identical inputs.
func Categorize(filename string, custom rules.RuleSet) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext == base {
		// Dotfiles like ".bashrc" have no extension.
		ext = ""
	}
	ext = rules.NormalizeExt(ext)
	if ext == "" {
		return DefaultFolder
	}

	if folder := custom.Lookup(ext); folder != "" {
		return folder
	}

	for _, g := range BuiltinGroups {
		for _, e := range g.Extensions {
			if e == ext {
				return g.Label
			}
		}
	}

	return strings.ToUpper(strings.TrimPrefix(ext, ".")) + " Files"
}
