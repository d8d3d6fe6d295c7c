package cli

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"golang.org/x/term"
)

type mockTerminalDetector struct {
	terminal bool
	calls    []int
}

func (m *mockTerminalDetector) IsTerminal(fd int) bool {
	m.calls = append(m.calls, fd)
	return m.terminal
}

func TestIsInteractiveTerminalDefault(t *testing.T) {
	cli := NewCLIWithFilesystem(afero.NewMemMapFs())

	for _, fd := range []int{int(os.Stdin.Fd()), int(os.Stdout.Fd()), -1} {
		assert.Equal(t, term.IsTerminal(fd), cli.isInteractiveTerminal(fd), "fd %d", fd)
	}
	assert.False(t, cli.isInteractiveTerminal(-1))
}

func TestIsTerminalWriter(t *testing.T) {
	mock := &mockTerminalDetector{terminal: true}
	cli := NewCLIWithFilesystem(afero.NewMemMapFs())
	cli.terminalDetector = mock

	assert.False(t, cli.isTerminalWriter(&bytes.Buffer{}), "non-file writers are never terminals")
	assert.Empty(t, mock.calls)

	assert.True(t, cli.isTerminalWriter(os.Stdout))
	assert.Equal(t, []int{int(os.Stdout.Fd())}, mock.calls)
}
