package hasher

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Entry is one file discovered by Scan, ready to be hashed.
type Entry struct {
	// Path is the slash-separated path relative to the scan root.
	Path string
	// Abs is the on-disk path to open.
	Abs  string
	Size int64
	Mode fs.FileMode
	// MTime is the file's modification time in unix seconds.
	MTime int64
	// SymlinkTarget is set when the entry is stored as a symlink rather
	// than followed.
	SymlinkTarget string
}

// ScanOptions control directory traversal.
type ScanOptions struct {
	// StoreSymlinks records symlinks as symlinks instead of following
	// them.
	StoreSymlinks bool
	// IncludeHidden keeps dot-files and dot-directories, which are
	// otherwise skipped.
	IncludeHidden bool
	// Exclude drops entries whose base name or relative path matches any
	// of these glob patterns.
	Exclude []string
}

// Scan walks root (a file or a directory) and returns its regular files in
// lexical order. Symlinks are followed when they point at regular files and
// stored when StoreSymlinks is set; symlinks to directories are never
// traversed.
func Scan(root string, opts ScanOptions) ([]Entry, error) {
	root = filepath.Clean(root)
	info, err := os.Lstat(root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	if !info.IsDir() {
		fi, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
		return []Entry{{
			Path:  filepath.Base(root),
			Abs:   root,
			Size:  fi.Size(),
			Mode:  fi.Mode(),
			MTime: fi.ModTime().Unix(),
		}}, nil
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		name := d.Name()

		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(rel, name, opts.Exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			e, ok, err := resolveSymlink(p, rel, opts)
			if err != nil {
				return err
			}
			if ok {
				entries = append(entries, e)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Path:  rel,
			Abs:   p,
			Size:  fi.Size(),
			Mode:  fi.Mode(),
			MTime: fi.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return entries, nil
}

func resolveSymlink(p, rel string, opts ScanOptions) (Entry, bool, error) {
	if opts.StoreSymlinks {
		target, err := os.Readlink(p)
		if err != nil {
			return Entry{}, false, err
		}
		return Entry{
			Path:          rel,
			Abs:           p,
			Mode:          fs.ModeSymlink,
			SymlinkTarget: filepath.ToSlash(target),
		}, true, nil
	}

	fi, err := os.Stat(p)
	if err != nil || !fi.Mode().IsRegular() {
		// Broken links and directory links are skipped when following.
		return Entry{}, false, nil
	}
	return Entry{
		Path:  rel,
		Abs:   p,
		Size:  fi.Size(),
		Mode:  fi.Mode(),
		MTime: fi.ModTime().Unix(),
	}, true, nil
}

func excluded(rel, name string, patterns []string) bool {
	for _, pat := range patterns {
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
