package streamproc

import (
	"os/exec"
)

// ExecRunner runs commands through the OS shell environment.
type ExecRunner struct{}

// Run executes the command and returns its combined output.
func (ExecRunner) Run(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	return string(out), err
}
