// Copyright (C) 2024 The Vortex Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package vxio

import (
	"bytes"
	"encoding/base32"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
)

// InputFS describes the filesystem implementation required for
// reading a collection of .vtxf files, grounded on the teacher's
// ion/blockfmt.InputFS (SPEC_FULL.md §4.7 expansion).
type InputFS interface {
	fs.FS

	// Prefix is prepended to filesystem paths to indicate the
	// filesystem's origin, e.g. "file://".
	Prefix() string

	// ETag returns a content-addressed identifier for the file at
	// fullpath, used to detect whether a previously-seen file has
	// changed.
	ETag(fullpath string, info fs.FileInfo) (string, error)
}

// UploadFS extends InputFS with write support, grounded on the
// teacher's ion/blockfmt.UploadFS.
type UploadFS interface {
	InputFS

	// WriteFile atomically creates or replaces the file at path with
	// buf's contents and returns its ETag.
	WriteFile(path string, buf []byte) (etag string, err error)

	// Create opens an Uploader for streaming a new file at path. The
	// file must not become visible at path until Upload is called on
	// the Uploader (spec.md §4.8: "flushes and shuts down the sink only
	// after emitting the marker").
	Create(path string) (Uploader, error)
}

// Uploader is the streaming sink vxfile.Writer writes a .vtxf file's
// bytes to (SPEC_FULL.md §4.7 expansion; simpler than the teacher's
// multi-part S3 uploader since this module's domain stack targets
// local disk, not object storage).
type Uploader interface {
	io.Writer
	// Upload finalizes the file, appending final and making the
	// result visible at the path Create was given.
	Upload(final []byte) error
	io.Closer
}

func blake2bETag(b []byte) string {
	sum := blake2b.Sum256(b)
	return "b2sum:" + base32.StdEncoding.EncodeToString(sum[:])
}

// DirFS is an InputFS and UploadFS rooted in a local directory,
// grounded directly on the teacher's ion/blockfmt.DirFS: atomic
// rename on write, blake2b-hashed ETags.
type DirFS struct {
	fs.FS
	Root string
}

// NewDirFS returns a DirFS rooted at dir.
func NewDirFS(dir string) *DirFS {
	return &DirFS{FS: os.DirFS(dir), Root: dir}
}

func (d *DirFS) Prefix() string { return "file://" }

func (d *DirFS) ETag(fullpath string, info fs.FileInfo) (string, error) {
	fullpath = path.Clean(fullpath)
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("vxio: cannot ETag non-regular file %s", fullpath)
	}
	f, err := d.Open(fullpath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "b2sum:" + base32.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

func (d *DirFS) WriteFile(fullpath string, buf []byte) (string, error) {
	if !fs.ValidPath(fullpath) {
		return "", fs.ErrInvalid
	}
	abs := filepath.Join(d.Root, fullpath)
	dir, base := filepath.Split(abs)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, base)
	if err != nil {
		return "", err
	}
	_, err = tmp.Write(buf)
	tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return blake2bETag(buf), nil
}

// dirUploader buffers the stream in memory and performs the atomic
// WriteFile on Upload, the same "buffer then one atomic rename"
// posture as the teacher's fileUploader wrapper around
// BufferUploader.
type dirUploader struct {
	dir  *DirFS
	path string
	buf  bytes.Buffer
}

func (u *dirUploader) Write(p []byte) (int, error) { return u.buf.Write(p) }

func (u *dirUploader) Upload(final []byte) error {
	u.buf.Write(final)
	_, err := u.dir.WriteFile(u.path, u.buf.Bytes())
	return err
}

func (u *dirUploader) Close() error { return nil }

func (d *DirFS) Create(fullpath string) (Uploader, error) {
	if !fs.ValidPath(fullpath) {
		return nil, fs.ErrInvalid
	}
	return &dirUploader{dir: d, path: path.Clean(fullpath)}, nil
}

// MemFS is an in-memory InputFS/UploadFS for tests, replacing the
// teacher's S3-specific S3FS (S3 itself is out of scope for this
// spec; see SPEC_FULL.md DOMAIN STACK).
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemFS returns an empty MemFS.
func NewMemFS() *MemFS { return &MemFS{files: make(map[string][]byte)} }

func (m *MemFS) Prefix() string { return "mem://" }

type memFile struct {
	name string
	data []byte
	pos  int
}

func (f *memFile) Stat() (fs.FileInfo, error) { return memFileInfo{f.name, len(f.data)}, nil }
func (f *memFile) Read(p []byte) (int, error) {
	if f.pos >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.pos:])
	f.pos += n
	return n, nil
}
func (f *memFile) Close() error { return nil }

type memFileInfo struct {
	name string
	size int
}

func (i memFileInfo) Name() string         { return i.name }
func (i memFileInfo) Size() int64          { return int64(i.size) }
func (i memFileInfo) Mode() fs.FileMode    { return 0644 }
func (i memFileInfo) ModTime() time.Time   { return time.Time{} }
func (i memFileInfo) IsDir() bool          { return false }
func (i memFileInfo) Sys() interface{}     { return nil }

func (m *MemFS) Open(name string) (fs.File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memFile{name: name, data: data}, nil
}

func (m *MemFS) ETag(fullpath string, info fs.FileInfo) (string, error) {
	m.mu.RLock()
	data, ok := m.files[fullpath]
	m.mu.RUnlock()
	if !ok {
		return "", fs.ErrNotExist
	}
	return blake2bETag(data), nil
}

func (m *MemFS) WriteFile(path string, buf []byte) (string, error) {
	m.mu.Lock()
	m.files[path] = append([]byte(nil), buf...)
	m.mu.Unlock()
	return blake2bETag(buf), nil
}

type memUploader struct {
	fs   *MemFS
	path string
	buf  bytes.Buffer
}

func (u *memUploader) Write(p []byte) (int, error) { return u.buf.Write(p) }
func (u *memUploader) Upload(final []byte) error {
	u.buf.Write(final)
	_, err := u.fs.WriteFile(u.path, u.buf.Bytes())
	return err
}
func (u *memUploader) Close() error { return nil }

func (m *MemFS) Create(path string) (Uploader, error) {
	return &memUploader{fs: m, path: path}, nil
}

var (
	_ InputFS  = (*DirFS)(nil)
	_ UploadFS = (*DirFS)(nil)
	_ InputFS  = (*MemFS)(nil)
	_ UploadFS = (*MemFS)(nil)
)
