// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"io/fs"
)

// FileReader defers opening a file until it is first read, so a
// missing config file surfaces from the [Source] consuming it.
type FileReader struct {
	fsys fs.FS
	name string
	f    fs.File
	err  error
}

// NewFileReader returns a [FileReader] for name in fsys.
func NewFileReader(fsys fs.FS, name string) *FileReader {
	return &FileReader{fsys: fsys, name: name}
}

func (r *FileReader) Read(b []byte) (int, error) {
	if r.f == nil && r.err == nil {
		r.f, r.err = r.fsys.Open(r.name)
	}
	if r.err != nil {
		return 0, r.err
	}
	return r.f.Read(b)
}

// Close is a no-op if the file was never opened. Reads after Close
// fail with [fs.ErrClosed].
func (r *FileReader) Close() error {
	f := r.f
	r.f, r.err = nil, fs.ErrClosed
	if f == nil {
		return nil
	}
	return f.Close()
}
