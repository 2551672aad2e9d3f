package upload

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samartsevigor/change-analyzer/internal/ignore"
	logger "github.com/sirupsen/logrus"
)

// ArchiveStats summarises what went into an archive.
type ArchiveStats struct {
	Files   int
	Skipped int
}

// WriteArchive zips the project tree rooted at projectPath into w. Ignored
// paths, the .git directory, non-regular files and the files named in
// exclude are left out. Entry names are slash separated and relative to
// projectPath.
func WriteArchive(w io.Writer, projectPath string, matcher *ignore.Matcher, exclude ...string) (ArchiveStats, error) {
	var stats ArchiveStats
	zw := zip.NewWriter(w)

	excluded := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		if abs, err := filepath.Abs(p); err == nil {
			excluded[abs] = true
		}
	}

	err := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(projectPath, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" || matcher.MatchDir(rel) {
				logger.Debugf("[upload] skipping directory %s", rel)
				stats.Skipped++
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || matcher.Match(rel) {
			stats.Skipped++
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil && excluded[abs] {
			logger.Debugf("[upload] skipping %s", rel)
			stats.Skipped++
			return nil
		}

		if err := addFile(zw, path, rel); err != nil {
			return err
		}
		stats.Files++
		return nil
	})
	if err != nil {
		zw.Close()
		return stats, fmt.Errorf("failed to archive %s: %w", projectPath, err)
	}

	if err := zw.Close(); err != nil {
		return stats, fmt.Errorf("failed to finish archive: %w", err)
	}
	logger.Debugf("[upload] archived %d files, skipped %d entries", stats.Files, stats.Skipped)
	return stats, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}
