package backup

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveName builds the timestamped filename for a new backup archive
func ArchiveName(at time.Time) string {
	return fmt.Sprintf("roulette-tracker_%s.tar.gz", at.UTC().Format("20060102_150405"))
}

// CreateArchive packs the data directory into a gzipped tarball written
// to outPath. Paths under any of the exclude prefixes are skipped, which
// keeps previous backups out of new archives.
func CreateArchive(dataDir, outPath string, exclude ...string) (int64, error) {
	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	walkErr := filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		for _, prefix := range exclude {
			if rel == prefix || strings.HasPrefix(rel, prefix+string(os.PathSeparator)) {
				if info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)

		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()

		_, err = io.Copy(tw, file)
		return err
	})

	if walkErr != nil {
		tw.Close()
		gz.Close()
		os.Remove(outPath)
		return 0, fmt.Errorf("failed to pack data dir: %w", walkErr)
	}

	if err := tw.Close(); err != nil {
		os.Remove(outPath)
		return 0, err
	}
	if err := gz.Close(); err != nil {
		os.Remove(outPath)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return 0, err
	}

	stat, err := os.Stat(outPath)
	if err != nil {
		return 0, err
	}

	return stat.Size(), nil
}

// ExtractArchive unpacks a gzipped tarball into destDir. Entries that
// would escape destDir are rejected.
func ExtractArchive(archivePath, destDir string) error {
	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("not a gzip archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("corrupt archive: %w", err)
		}

		target := filepath.Join(destDir, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry escapes destination: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(header.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(file, tr); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
		}
	}
}
