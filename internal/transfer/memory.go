package transfer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"shoebox/internal/box"
)

// MemoryTransfer keeps uploads in memory. It backs tests and lets upload
// flows run without any real target configured. Safe for concurrent use.
type MemoryTransfer struct {
	name    string
	objects map[string][]byte
	sendErr map[string]error
	mu      sync.RWMutex
}

// NewMemoryTransfer creates an empty in-memory transfer.
func NewMemoryTransfer(name string) *MemoryTransfer {
	return &MemoryTransfer{
		name:    name,
		objects: make(map[string][]byte),
		sendErr: make(map[string]error),
	}
}

// Send stores the content under key after verifying the byte count.
// Sending the same key again overwrites, which matches how the real
// targets behave.
func (m *MemoryTransfer) Send(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	err := m.sendErr[key]
	m.mu.RUnlock()
	if err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *MemoryTransfer) Close() error {
	return nil
}

// Object returns the stored content for key.
func (m *MemoryTransfer) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

// Len returns the number of stored objects.
func (m *MemoryTransfer) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// FailWith makes every Send for key return err. Tests use it to simulate
// per-file transfer failures.
func (m *MemoryTransfer) FailWith(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr[key] = err
}

// Compile-time check that MemoryTransfer implements box.Transfer
var _ box.Transfer = (*MemoryTransfer)(nil)
