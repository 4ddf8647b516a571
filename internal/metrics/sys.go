package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SysHealth represents real-time process and storage health.
type SysHealth struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	Uptime       string `json:"uptime"`
	AllocMB      uint64 `json:"allocMb"`
	TotalAllocMB uint64 `json:"totalAllocMb"`
	SysMB        uint64 `json:"sysMb"`
	NumGC        uint32 `json:"numGc"`
	Goroutines   int    `json:"goroutines"`
	DataDiskSize string `json:"dataDiskSize"`
}

// Collector builds health snapshots for one running process.
type Collector struct {
	db       Pinger
	dataPath string
	started  time.Time
}

// NewCollector creates a Collector checking db and measuring the directory
// holding the database file.
func NewCollector(db Pinger, databasePath string) *Collector {
	return &Collector{
		db:       db,
		dataPath: filepath.Dir(databasePath),
		started:  time.Now(),
	}
}

// Healthy reports whether the snapshot describes a working process.
func (h SysHealth) Healthy() bool {
	return h.Status == "ok"
}

// GetSysHealth collects real-time health data.
func (c *Collector) GetSysHealth(ctx context.Context) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := SysHealth{
		Status:       "ok",
		Database:     "ok",
		Uptime:       time.Since(c.started).Round(time.Second).String(),
		AllocMB:      m.Alloc / 1024 / 1024,
		TotalAllocMB: m.TotalAlloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DataDiskSize: calculateDirSize(c.dataPath),
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.db.Ping(ctx); err != nil {
		h.Status = "degraded"
		h.Database = err.Error()
	}
	return h
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
	return formatBytes(size)
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
