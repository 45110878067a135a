package cache

import (
    "encoding/json"
    "errors"
    "io/fs"
    "os"
    "path/filepath"
    "strings"
    "time"
)

// ClearDir removes dir and everything below it, then recreates it empty.
func ClearDir(dir string) error {
    if strings.TrimSpace(dir) == "" {
        return errors.New("empty dir")
    }
    if err := os.RemoveAll(dir); err != nil {
        return err
    }
    return os.MkdirAll(dir, 0o755)
}

// PurgeByAge deletes cached pages whose SavedAt is older than maxAge and
// returns how many were removed. Unreadable or malformed entries are left alone.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
    if maxAge <= 0 {
        return 0, nil
    }
    now := time.Now().UTC()
    removed := 0
    err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
        if err != nil {
            if errors.Is(err, fs.ErrNotExist) {
                return nil
            }
            return err
        }
        if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
            return nil
        }
        b, err := os.ReadFile(path)
        if err != nil {
            return nil
        }
        var e PageEntry
        if err := json.Unmarshal(b, &e); err != nil {
            return nil
        }
        if now.Sub(e.SavedAt) <= maxAge {
            return nil
        }
        removed++
        _ = os.Remove(path)
        _ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
        return nil
    })
    return removed, err
}
