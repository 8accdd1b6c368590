package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/savoria/orderdesk/internal/core/domain"
	"github.com/savoria/orderdesk/internal/core/port"
)

// AuditFallback appends audit records to a local JSONL file when the
// primary store is unavailable. Writes are serialized so concurrent
// records never interleave within a line.
type AuditFallback struct {
	path string
	mu   sync.Mutex
}

// NewAuditFallback constructs a fallback writing to the given path. The
// parent directory is created on first use, not here, so construction
// never fails.
func NewAuditFallback(path string) *AuditFallback {
	return &AuditFallback{path: path}
}

type fallbackLine struct {
	Timestamp time.Time `json:"ts"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	Outcome   string    `json:"outcome"`
	SourceIP  string    `json:"source_ip,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
}

// Append writes one record as a JSON line.
func (f *AuditFallback) Append(_ context.Context, record domain.AuditRecord) error {
	line := fallbackLine{
		Timestamp: record.Timestamp.UTC(),
		ActorID:   record.ActorID,
		Action:    record.Action,
		Outcome:   string(record.Outcome),
		SourceIP:  record.SourceIP,
		UserAgent: record.UserAgent,
	}

	payload, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("marshal audit fallback line: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create audit fallback directory: %w", err)
		}
	}

	handle, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit fallback file: %w", err)
	}
	defer handle.Close()

	if _, err := handle.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write audit fallback line: %w", err)
	}

	return nil
}

var _ port.AuditFallback = (*AuditFallback)(nil)
