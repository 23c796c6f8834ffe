//go:build unix

package process

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminateKillsProcessGroup(t *testing.T) {
	// The background sleep inherits stdout. Unless it dies with the shell,
	// the pipe never reaches EOF.
	h := startShell(t, "sleep 30 & printf started; wait")

	buf := make([]byte, len("started"))
	_, err := io.ReadFull(h, buf)
	require.NoError(t, err)

	h.Terminate()

	drained := make(chan error, 1)
	go func() {
		_, err := io.Copy(io.Discard, h)
		drained <- err
	}()

	select {
	case err := <-drained:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stdout still open after terminating the process group")
	}

	status := waitWithTimeout(t, h, 5*time.Second)
	assert.True(t, status.Killed)
}
