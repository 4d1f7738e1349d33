package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Epoch is the instant every suite clock starts at.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// IntegrationTestSuite is the base for suites that cross package lines:
// snapshot files on disk, the repository over a real pool, the CLI wiring.
// Each test gets a fresh context, a fresh ManualClock at Epoch and a logger
// bound to it. Files live in one directory shared by the whole suite.
type IntegrationTestSuite struct {
	suite.Suite

	ctx    context.Context
	cancel context.CancelFunc
	clock  *ManualClock
	dir    string
}

// SetupSuite creates the suite's file directory.
func (s *IntegrationTestSuite) SetupSuite() {
	s.dir = s.T().TempDir()
}

// SetupTest resets the per-test context and clock.
func (s *IntegrationTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 2*time.Minute)
	s.clock = NewManualClock(Epoch)
}

// TearDownTest cancels the per-test context.
func (s *IntegrationTestSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Context returns the context of the running test.
func (s *IntegrationTestSuite) Context() context.Context { return s.ctx }

// Clock returns the running test's clock, for store.WithClock(s.Clock().Now).
func (s *IntegrationTestSuite) Clock() *ManualClock { return s.clock }

// TempDir returns the suite's file directory, removed when the suite ends.
func (s *IntegrationTestSuite) TempDir() string { return s.dir }

// Logger returns a logger writing to the running test's output.
func (s *IntegrationTestSuite) Logger() *zap.Logger {
	return zaptest.NewLogger(s.T())
}

// CreateTempFile writes content to name inside TempDir and returns its path.
func (s *IntegrationTestSuite) CreateTempFile(name string, content []byte) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, content, 0o644))
	return path
}

// IntegrationTest skips the calling test under -short.
func IntegrationTest(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}
}
