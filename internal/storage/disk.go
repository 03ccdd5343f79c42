package storage

import "os"

// DiskUsageBytes returns the combined size in bytes of the given files.
// Missing or empty paths contribute zero, so callers can pass the WAL and
// shared-memory sidecar names unconditionally whether or not SQLite has
// materialized them.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// sidecarPaths lists the dataset file plus the sidecars WAL mode leaves
// next to it.
func sidecarPaths(path string) []string {
	return []string{path, path + "-wal", path + "-shm"}
}
