// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package session

import (
	"os"
	"path/filepath"
)

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// dirStats counts dir's top-level regular files and sums their size,
// matching BatchSender's own non-recursive enumeration (spec.md Open
// Question §9.1) so the CAPABILITY_NEGO's file_count/total_size fields
// describe exactly what will be transferred.
func dirStats(dir string) (fileCount uint32, totalSize uint64, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil {
			return 0, 0, err
		}
		fileCount++
		totalSize += uint64(info.Size())
	}
	return fileCount, totalSize, nil
}
