package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/mediagate/internal/artifact"
	"github.com/iconidentify/mediagate/internal/repository"
)

var startTime = time.Now()

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	artifacts *artifact.Manager
	journal   repository.AllocationRepository
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(artifacts *artifact.Manager, journal repository.AllocationRepository) *HealthHandler {
	return &HealthHandler{
		artifacts: artifacts,
		journal:   journal,
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Error     string `json:"error,omitempty"`
	InFlight  *int   `json:"in_flight,omitempty"`
}

// Live handles GET /health - liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe. The temp root must be
// writable and the allocation journal reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.checkReady(ctx); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(HealthResponse{
			Status:    "error",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error:     err.Error(),
		})
		return
	}

	inFlight := h.artifacts.InFlight()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		InFlight:  &inFlight,
	})
}

func (h *HealthHandler) checkReady(ctx context.Context) error {
	f, err := os.CreateTemp(h.artifacts.Root(), ".ready-*")
	if err != nil {
		return fmt.Errorf("temp root not writable: %w", err)
	}
	f.Close()
	os.Remove(f.Name())

	if _, err := h.journal.Count(ctx); err != nil {
		return fmt.Errorf("journal unavailable: %w", err)
	}
	return nil
}

// SystemStats contains system resource and artifact statistics.
type SystemStats struct {
	Uptime        int64          `json:"uptime_seconds"`
	UptimeHuman   string         `json:"uptime_human"`
	MemAllocMB    int64          `json:"mem_alloc_mb"`
	MemSysMB      int64          `json:"mem_sys_mb"`
	NumGoroutines int            `json:"num_goroutines"`
	NumCPU        int            `json:"num_cpu"`
	Artifacts     artifact.Stats `json:"artifacts"`
	Journaled     int            `json:"journaled"`
	DiskFreeBytes uint64         `json:"disk_free_bytes"`
	DiskFreeHuman string         `json:"disk_free_human,omitempty"`
	StoragePath   string         `json:"storage_path"`
}

// Stats handles GET /stats - system statistics.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(startTime)

	stats := SystemStats{
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		MemSysMB:      int64(m.Sys / 1024 / 1024),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		Artifacts:     h.artifacts.Stats(),
		StoragePath:   h.artifacts.Root(),
	}

	if n, err := h.journal.Count(r.Context()); err == nil {
		stats.Journaled = n
	}
	if free, err := h.artifacts.FreeBytes(); err == nil {
		stats.DiskFreeBytes = free
		stats.DiskFreeHuman = humanize.Bytes(free)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(stats)
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
