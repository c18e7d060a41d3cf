package tools

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// ExecRunner runs external tools as child processes.
type ExecRunner struct{}

// Run executes name with args in dir, blocking until it exits. On failure
// the combined output is part of the error.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	logrus.Debugf("Running %s %v (dir=%s)", name, args, dir)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\n%s", name, err, out)
	}

	if len(out) > 0 {
		logrus.Debugf("%s output:\n%s", name, out)
	}
	return nil
}
