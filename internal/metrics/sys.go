package metrics

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
)

// SysHealth represents real-time process and storage metrics.
type SysHealth struct {
	AllocMB      uint64
	TotalAllocMB uint64
	SysMB        uint64
	NumGC        uint32
	Goroutines   int
	DataDiskSize string
	Storage      StorageUsage
}

// StorageUsage reports how much of the record store quota is in use.
type StorageUsage struct {
	UsedBytes  int64
	QuotaBytes int64
}

// UsageSource is implemented by record stores that can measure themselves.
type UsageSource interface {
	Usage(ctx context.Context) (int64, error)
	Quota() int64
}

// GetSysHealth collects real-time health data for the directory holding the database.
func GetSysHealth(dataPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataDiskSize: calculateDirSize(dataPath),
	}
}

// GetStorageUsage measures the record store.
func GetStorageUsage(ctx context.Context, src UsageSource) (StorageUsage, error) {
	used, err := src.Usage(ctx)
	if err != nil {
		return StorageUsage{}, err
	}
	return StorageUsage{UsedBytes: used, QuotaBytes: src.Quota()}, nil
}

// Used renders the used size, e.g. "1.2 kB".
func (u StorageUsage) Used() string {
	return humanize.Bytes(uint64(max(u.UsedBytes, 0)))
}

// Quota renders the quota, or "unlimited".
func (u StorageUsage) Quota() string {
	if u.QuotaBytes <= 0 {
		return "unlimited"
	}
	return humanize.Bytes(uint64(u.QuotaBytes))
}

// Percent is the share of the quota in use, 0 when unlimited.
func (u StorageUsage) Percent() float64 {
	if u.QuotaBytes <= 0 {
		return 0
	}
	return float64(u.UsedBytes) / float64(u.QuotaBytes) * 100
}

func calculateDirSize(path string) string {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return humanize.Bytes(uint64(size))
}
