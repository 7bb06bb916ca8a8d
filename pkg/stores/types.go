package stores

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no snapshot matches an id.
var ErrNotFound = errors.New("snapshot not found")

// ErrAmbiguousID is returned when an id prefix matches more than one snapshot.
var ErrAmbiguousID = errors.New("ambiguous snapshot id")

// Snapshot is one saved copy of a persisted configuration file.
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"`
	Source    string    `json:"source" yaml:"source"`     // primary configuration description
	Content   string    `json:"content" yaml:"-"`         // persisted config text
	Checksum  string    `json:"checksum" yaml:"checksum"` // SHA256 of Content
	Items     int       `json:"items" yaml:"items"`
	Note      string    `json:"note,omitempty" yaml:"note,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewSnapshot builds a snapshot of content with a fresh id.
func NewSnapshot(source, content, note string) *Snapshot {
	return &Snapshot{
		ID:        uuid.NewString(),
		Source:    source,
		Content:   content,
		Checksum:  Checksum(content),
		Items:     countEntries(content),
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
}

// ShortID is the first eight characters of the id.
func (s *Snapshot) ShortID() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[:8]
}

// Checksum returns the hex SHA256 of content.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// countEntries counts the "<symbol> <value>" lines of a persisted config.
func countEntries(content string) int {
	n := 0
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			n++
		}
	}
	return n
}

// Restore records a snapshot being written back to a state file.
type Restore struct {
	ID         int64     `json:"id" yaml:"id"`
	SnapshotID string    `json:"snapshot_id" yaml:"snapshot_id"`
	Target     string    `json:"target" yaml:"target"`
	RestoredAt time.Time `json:"restored_at" yaml:"restored_at"`
}

// Store defines the interface for the snapshot history
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Snapshot operations
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	LatestSnapshot(ctx context.Context, source string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, source string, limit, offset int) ([]*Snapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
	Prune(ctx context.Context, source string, keep int) (int64, error)

	// Restore audit
	RecordRestore(ctx context.Context, snapshotID, target string) error
	ListRestores(ctx context.Context, snapshotID string) ([]*Restore, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
