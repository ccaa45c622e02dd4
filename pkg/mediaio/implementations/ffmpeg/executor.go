package ffmpeg

import (
	"context"
	"io"
	"os/exec"
)

// CommandExecutor creates the ffmpeg/ffprobe processes; it exists
// to let tests replace the real binaries.
type CommandExecutor interface {
	Command(ctx context.Context, name string, args ...string) Commander
}

// Commander is the subset of *exec.Cmd used by the backend.
type Commander interface {
	Start() error
	Wait() error
	StdoutPipe() (io.ReadCloser, error)
	StdinPipe() (io.WriteCloser, error)
	SetStderr(w io.Writer)
}

type DefaultCommandExecutor struct{}

func (DefaultCommandExecutor) Command(ctx context.Context, name string, args ...string) Commander {
	return &DefaultCommander{
		cmd: exec.CommandContext(ctx, name, args...),
	}
}

type DefaultCommander struct {
	cmd *exec.Cmd
}

func (c *DefaultCommander) Start() error {
	return c.cmd.Start()
}

func (c *DefaultCommander) Wait() error {
	return c.cmd.Wait()
}

func (c *DefaultCommander) StdoutPipe() (io.ReadCloser, error) {
	return c.cmd.StdoutPipe()
}

func (c *DefaultCommander) StdinPipe() (io.WriteCloser, error) {
	return c.cmd.StdinPipe()
}

func (c *DefaultCommander) SetStderr(w io.Writer) {
	c.cmd.Stderr = w
}

var DefaultExecutor CommandExecutor = DefaultCommandExecutor{}
