package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"lodge/pkg/logger"
	"lodge/pkg/model"
)

const DefaultBookingsFile = "data/bookings.json"

// FileBookingRepository keeps every booking in one pretty-printed JSON array.
// A missing or unreadable file counts as an empty log. Existing entries are
// carried over verbatim, including fields this version does not know.
type FileBookingRepository struct {
	mu   sync.Mutex
	path string
	log  *logger.Logger
}

func NewFileBookingRepository(path string, log *logger.Logger) *FileBookingRepository {
	if path == "" {
		path = DefaultBookingsFile
	}
	return &FileBookingRepository{path: path, log: log}
}

func (r *FileBookingRepository) Path() string {
	return r.path
}

func (r *FileBookingRepository) Append(ctx context.Context, record model.BookingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode booking: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	entries := append(r.readEntries(), json.RawMessage(entry))

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode booking log: %w", err)
	}

	return writeFileAtomic(r.path, data)
}

// Records returns the entries that decode as bookings.
func (r *FileBookingRepository) Records(ctx context.Context) ([]model.BookingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	entries := r.readEntries()
	r.mu.Unlock()

	records := make([]model.BookingRecord, 0, len(entries))
	for _, entry := range entries {
		var record model.BookingRecord
		if err := json.Unmarshal(entry, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (r *FileBookingRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}

	probe, err := os.CreateTemp(dir, ".ready-*")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

func (r *FileBookingRepository) readEntries() []json.RawMessage {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn("Booking log unreadable, starting a new one", "path", r.path, "error", err)
		}
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		r.log.Warn("Booking log corrupt, starting a new one", "path", r.path, "error", err)
		return nil
	}
	return entries
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write booking log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write booking log: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write booking log: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace booking log: %w", err)
	}
	return nil
}
