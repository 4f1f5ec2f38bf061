package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// Rule maps one destination folder to a set of file extensions.
type Rule struct {
	Folder     string
	Extensions []string
}

// RuleSet is an insertion-ordered list of custom rules. Order matters: when
// two rules claim the same extension, the first-inserted rule wins. On the
// wire and on disk a RuleSet is a JSON object keyed by folder name; key
// order in the document is insertion order.
type RuleSet []Rule

// Lookup returns the folder of the first rule claiming ext, or "" if none.
// ext must already be normalized.
func (rs RuleSet) Lookup(ext string) string {
	for _, r := range rs {
		for _, e := range r.Extensions {
			if e == ext {
				return r.Folder
			}
		}
	}
	return ""
}

// MarshalJSON encodes the rule set as a JSON object, preserving rule order.
func (rs RuleSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range rs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Folder)
		if err != nil {
			return nil, err
		}
		exts := r.Extensions
		if exts == nil {
			exts = []string{}
		}
		val, err := json.Marshal(exts)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into rules, keeping the document's key
// order as insertion order.
func (rs *RuleSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("rules document is not a JSON object")
	}

	var out RuleSet
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		folder, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}
		var exts []string
		if err := dec.Decode(&exts); err != nil {
			return err
		}
		out = append(out, Rule{Folder: folder, Extensions: exts})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*rs = out
	return nil
}

// ValidFolder reports whether name is usable as a rule destination: one
// plain, non-hidden path segment. Anything with separators or traversal
// would let a rule steer an upload outside the storage root.
func ValidFolder(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return true
}

// NormalizeExt lowercases an extension and ensures a leading dot. Empty and
// dot-only inputs normalize to "".
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// Store persists the rule set as a single JSON document. The document is
// re-read on every load so external edits take effect immediately; there is
// no caching and no locking. Concurrent load/save cycles are a known race.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the rule document. It fails soft: a missing or unparsable
// document yields an empty rule set so classification is never blocked.
// Folder names and extensions are re-validated so a hand-edited document
// cannot smuggle in traversal or junk entries.
func (s *Store) Load() RuleSet {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil
	}

	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		log.Printf("Ignoring unparsable rules document %s: %v", s.Path, err)
		return nil
	}
	return normalize(rs)
}

// Save rewrites the whole rule document, normalizing extensions on the way
// out.
func (s *Store) Save(rs RuleSet) error {
	data, err := json.MarshalIndent(normalize(rs), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0644)
}

// Upsert replaces the extension list of an existing folder, or appends a new
// rule. Replacing happens in place so the rule's original position, and with
// it precedence between folders, stays stable. A rules-write failure is
// logged and swallowed; the updated set is still returned.
func (s *Store) Upsert(folder string, extensions []string) RuleSet {
	rs := s.Load()

	updated := false
	for i := range rs {
		if rs[i].Folder == folder {
			rs[i].Extensions = extensions
			updated = true
			break
		}
	}
	if !updated {
		rs = append(rs, Rule{Folder: folder, Extensions: extensions})
	}

	if err := s.Save(rs); err != nil {
		log.Printf("Failed to save rules document %s: %v", s.Path, err)
	}
	return normalize(rs)
}

func normalize(rs RuleSet) RuleSet {
	out := make(RuleSet, 0, len(rs))
	for _, r := range rs {
		folder := strings.TrimSpace(r.Folder)
		if !ValidFolder(folder) {
			log.Printf("Ignoring rule with invalid folder %q", r.Folder)
			continue
		}
		exts := make([]string, 0, len(r.Extensions))
		for _, e := range r.Extensions {
			if n := NormalizeExt(e); n != "" {
				exts = append(exts, n)
			}
		}
		out = append(out, Rule{Folder: folder, Extensions: exts})
	}
	return out
}
