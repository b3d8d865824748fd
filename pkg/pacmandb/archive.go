package pacmandb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/mholt/archives"
)

// EntryName returns the directory name of a package
// within a repository database.
func EntryName(pkg *Package) string {
	return fmt.Sprintf("%s-%s", pkg.Name, pkg.Version.String())
}

// WriteArchive writes packages as an uncompressed
// repository database tarball.
func WriteArchive(ctx context.Context, w io.Writer, packages []*Package) error {
	files := make([]archives.FileInfo, 0, len(packages)*2)
	for _, pkg := range packages {
		dir := EntryName(pkg)
		files = append(files,
			memEntry(dir, nil, fs.ModeDir|0755),
			memEntry(dir+"/"+FileDesc, Desc(pkg), 0644),
		)
	}
	if err := (archives.Tar{}).Archive(ctx, w, files); err != nil {
		return fmt.Errorf("writing database archive: %w", err)
	}
	return nil
}

// memEntry describes an archive entry held in memory.
func memEntry(name string, data []byte, mode fs.FileMode) archives.FileInfo {
	info := memInfo{name: name, size: int64(len(data)), mode: mode}
	return archives.FileInfo{
		FileInfo:      info,
		NameInArchive: name,
		Open: func() (fs.File, error) {
			return &memFile{Reader: bytes.NewReader(data), info: info}, nil
		},
	}
}

type memInfo struct {
	name string
	size int64
	mode fs.FileMode
}

func (m memInfo) Name() string       { return m.name }
func (m memInfo) Size() int64        { return m.size }
func (m memInfo) Mode() fs.FileMode  { return m.mode }
func (m memInfo) ModTime() time.Time { return time.Unix(0, 0) }
func (m memInfo) IsDir() bool        { return m.mode.IsDir() }
func (m memInfo) Sys() any           { return nil }

type memFile struct {
	*bytes.Reader
	info memInfo
}

func (m *memFile) Stat() (fs.FileInfo, error) { return m.info, nil }
func (*memFile) Close() error                 { return nil }
