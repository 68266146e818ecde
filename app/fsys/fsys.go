package fsys

import (
	"os"
	"path/filepath"
)

// FS is the part of the filesystem the parser and resolver touch.
type FS interface {
	// Canonicalize returns the absolute path of name with every symlink,
	// "." and ".." resolved. It fails if any component does not exist.
	Canonicalize(name string) (string, error)
	ReadAll(name string) ([]byte, error)
}

type OS struct{}

func (OS) Canonicalize(name string) (string, error) {
	// no filepath.Abs here: it cleans ".." lexically before symlinks resolve
	if !filepath.IsAbs(name) {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		name = wd + string(filepath.Separator) + name
	}
	return filepath.EvalSymlinks(name)
}

func (OS) ReadAll(name string) ([]byte, error) {
	return os.ReadFile(name)
}
