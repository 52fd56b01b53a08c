// Package audit appends structured retrieval and ingestion records to a
// JSONL file and supports bounded read-back for admin inspection.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/akropatel/tenantrag/internal/retrieval"
)

// Record is one audit line. Payload carries the event-specific fields.
type Record struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	TenantID  string          `json:"tenant_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Log is an append-only JSONL audit sink. Writes are serialized; a write
// failure is logged and swallowed so auditing never fails the request path.
type Log struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewLog creates a JSONL audit log at path. An empty path disables writing;
// Append becomes a no-op and Tail returns nothing.
func NewLog(path string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{path: path, logger: logger}
}

// Append writes one record with the current timestamp. The payload must be
// JSON-marshalable.
func (l *Log) Append(ctx context.Context, recordType, tenantID, userID string, payload any) {
	if l.path == "" {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		l.logger.WarnContext(ctx, "audit payload not marshalable", "type", recordType, "error", err)
		return
	}
	rec := Record{
		Timestamp: time.Now().UTC(),
		Type:      recordType,
		TenantID:  tenantID,
		UserID:    userID,
		Payload:   raw,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		l.logger.WarnContext(ctx, "audit record not marshalable", "type", recordType, "error", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.logger.WarnContext(ctx, "audit log open failed", "path", l.path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		l.logger.WarnContext(ctx, "audit log write failed", "path", l.path, "error", err)
	}
}

// Emit implements retrieval.Emitter by appending the diagnostic event.
func (l *Log) Emit(ctx context.Context, ev retrieval.Event) error {
	l.Append(ctx, ev.Type, ev.TenantID, "", ev)
	return nil
}

// Tail returns up to n most recent records, oldest first.
func (l *Log) Tail(n int) ([]Record, error) {
	if l.path == "" || n <= 0 {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// Skip malformed lines rather than failing the read.
			continue
		}
		records = append(records, rec)
		if len(records) > n {
			records = records[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return records, nil
}

var _ retrieval.Emitter = (*Log)(nil)
