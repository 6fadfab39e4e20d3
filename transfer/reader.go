// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package transfer

import "os"

// fileData is the single read abstraction the sender engine uses,
// regardless of whether the file is buffered in memory or streamed from
// disk (spec §4.8's memory policy).
type fileData interface {
	Size() uint32
	ReadAt(addr uint32, length uint16) ([]byte, error)
	Close() error
}

type memoryFileData struct {
	data []byte
}

func (m *memoryFileData) Size() uint32 { return uint32(len(m.data)) }

func (m *memoryFileData) ReadAt(addr uint32, length uint16) ([]byte, error) {
	end := addr + uint32(length)
	if end > uint32(len(m.data)) {
		end = uint32(len(m.data))
	}
	return m.data[addr:end], nil
}

func (m *memoryFileData) Close() error { return nil }

type streamFileData struct {
	f    *os.File
	size uint32
	buf  []byte
}

func (s *streamFileData) Size() uint32 { return s.size }

func (s *streamFileData) ReadAt(addr uint32, length uint16) ([]byte, error) {
	if int(length) > cap(s.buf) {
		s.buf = make([]byte, length)
	}
	buf := s.buf[:length]
	n, err := s.f.ReadAt(buf, int64(addr))
	if err != nil && n == 0 {
		return nil, err
	}
	return buf[:n], nil
}

func (s *streamFileData) Close() error { return s.f.Close() }

// OpenFileData exposes openFileData to callers outside this package
// (the session orchestrator) that need to open a file for Sender.SendFile
// without re-implementing the memory/streaming mode decision.
func OpenFileData(path string, maxCacheSize int64) (fileData, error) {
	return openFileData(path, maxCacheSize)
}

// openFileData picks the memory or streaming reader for path according
// to maxCacheSize: files at or under the limit are read once into
// memory; larger files are read via seek-per-chunk (spec §4.8).
func openFileData(path string, maxCacheSize int64) (fileData, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() <= maxCacheSize {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return &memoryFileData{data: data}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &streamFileData{f: f, size: uint32(info.Size())}, nil
}
