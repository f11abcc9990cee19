// Package archive provides tar.xz bundling used to preserve legacy project
// files before migration and to inspect the resulting bundles.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// BundleFiles writes the given files into a single tar.xz archive at
// dstPath. Entries are stored flat under baseDir inside the archive;
// original modification times are preserved. Parent directories of dstPath
// are created.
func BundleFiles(files []string, dstPath, baseDir string) error {
	if len(files) == 0 {
		return fmt.Errorf("no files to bundle")
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	outFile, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer outFile.Close()

	xzw, err := xz.NewWriter(outFile)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}

	tw := tar.NewWriter(xzw)

	for _, path := range files {
		if err := addFile(tw, path, baseDir); err != nil {
			tw.Close()
			xzw.Close()
			os.Remove(dstPath)
			return fmt.Errorf("failed to archive %s: %w", path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize tar: %w", err)
	}
	if err := xzw.Close(); err != nil {
		return fmt.Errorf("failed to finalize xz: %w", err)
	}
	return outFile.Close()
}

// CreateTarXz archives a whole directory tree into a tar.xz with entries
// prefixed by baseDir.
func CreateTarXz(srcDir, dstPath, baseDir string) error {
	var files []string
	err := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", srcDir, err)
	}
	return BundleFiles(files, dstPath, baseDir)
}

func addFile(tw *tar.Writer, path, baseDir string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("directory entries are not supported: %s", path)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = baseDir + "/" + filepath.Base(path)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(tw, file)
	return err
}
