// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/orgaudit/internal/workpool"
)

// Header is the roster header line.
const Header = "Id,firstName,lastName,salary,managerId"

// ScenarioRoster is the five-person sample organization.
const ScenarioRoster = Header + `
123,Joe,Doe,60000,
124,Martin,Chekov,45000,123
125,Bob,Ronstad,47000,123
300,Alice,Hasacat,50000,124
305,Brett,Hardleaf,34000,300
`

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// NewPool starts a worker pool that is closed when the test ends.
func NewPool(t *testing.T, workers int) *workpool.Pool {
	t.Helper()
	p := workpool.New(context.Background(), workers)
	t.Cleanup(p.Close)
	return p
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Lines splits a roster literal into lines, dropping the empty tail.
func Lines(roster string) []string {
	return strings.Split(strings.TrimSuffix(roster, "\n"), "\n")
}

// ChainRoster returns a header plus n employees where employee i+1 reports
// to employee i, starting at id 1. The deepest employee has n-1 managers.
func ChainRoster(n int) []string {
	lines := []string{Header}
	for i := 1; i <= n; i++ {
		manager := ""
		if i > 1 {
			manager = fmt.Sprint(i - 1)
		}
		lines = append(lines, fmt.Sprintf("%d,First%d,Last%d,%d,%s", i, i, i, 100000-i*1000, manager))
	}
	return lines
}
