// Package largefiles finds working tree files too large to push.
package largefiles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// DefaultThresholdBytes is the size above which a file is reported (50 MiB).
	DefaultThresholdBytes int64 = 50 * 1024 * 1024

	rootStatErrorTemplateConstant = "inspect %s: %w"
	rootNotDirectoryMessage       = "not a directory"
)

// DefaultExcludedDirectories lists directory names never descended into.
var DefaultExcludedDirectories = []string{".git", "venv", ".venv", "env", "node_modules"}

// OversizedFile is a regular file strictly larger than the threshold.
type OversizedFile struct {
	Path      string
	SizeBytes int64
}

// Finder walks a directory tree on an afero filesystem.
type Finder struct {
	fileSystem afero.Fs
}

// NewFinder constructs a Finder. A nil filesystem selects the operating system.
func NewFinder(fileSystem afero.Fs) *Finder {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Finder{fileSystem: fileSystem}
}

// FindFilesOverSize returns regular files under root larger than thresholdBytes, in lexical order.
// Directories whose name appears in excludedDirectories are skipped at any depth, and unreadable
// subdirectories are skipped rather than failing the walk. Paths are relative to root with forward slashes.
func (finder *Finder) FindFilesOverSize(root string, thresholdBytes int64, excludedDirectories []string) ([]OversizedFile, error) {
	rootInfo, rootError := finder.fileSystem.Stat(root)
	if rootError != nil {
		return nil, fmt.Errorf(rootStatErrorTemplateConstant, root, rootError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(rootStatErrorTemplateConstant, root, errors.New(rootNotDirectoryMessage))
	}

	excludedNames := make(map[string]struct{}, len(excludedDirectories))
	for _, excludedDirectory := range excludedDirectories {
		trimmedName := strings.Trim(strings.TrimSpace(excludedDirectory), "/")
		if len(trimmedName) > 0 {
			excludedNames[trimmedName] = struct{}{}
		}
	}

	oversizedFiles := []OversizedFile{}
	walkError := afero.Walk(finder.fileSystem, root, func(currentPath string, fileInfo os.FileInfo, visitError error) error {
		if visitError != nil {
			if currentPath == root {
				return visitError
			}
			if fileInfo != nil && fileInfo.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if fileInfo.IsDir() {
			if currentPath == root {
				return nil
			}
			if _, excluded := excludedNames[fileInfo.Name()]; excluded {
				return filepath.SkipDir
			}
			return nil
		}

		if !fileInfo.Mode().IsRegular() || fileInfo.Size() <= thresholdBytes {
			return nil
		}

		relativePath, relativeError := filepath.Rel(root, currentPath)
		if relativeError != nil {
			relativePath = currentPath
		}
		oversizedFiles = append(oversizedFiles, OversizedFile{Path: filepath.ToSlash(relativePath), SizeBytes: fileInfo.Size()})
		return nil
	})
	if walkError != nil && !errors.Is(walkError, fs.SkipDir) {
		return nil, walkError
	}

	return oversizedFiles, nil
}
