package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// CommandRunner executes external commands. Split out so the plan can
// be exercised in tests without touching the host.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ExecRunner runs commands on the host
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// appFiles is the fixed set of files installed in copy mode, relative
// to the source directory.
var appFiles = []string{
	"roulette-tracker",
	"roulette-installer",
	"configs/config.yaml",
}

// acquireSource populates the install directory. In repo mode the
// directory is recreated from a fresh git clone; in copy mode the fixed
// application file set is copied from the source directory. Either way
// the previous contents are removed first.
func (i *Installer) acquireSource(ctx context.Context) error {
	installDir := i.cfg.InstallDir

	if err := os.RemoveAll(installDir); err != nil {
		return fmt.Errorf("failed to clear install dir: %w", err)
	}

	if i.runFromRepo() {
		if i.cfg.RepoURL == "" {
			return fmt.Errorf("RUN_FROM_REPO is set but no repo_url configured")
		}
		if _, err := i.runner.Run(ctx, "git", "clone", "--depth", "1", i.cfg.RepoURL, installDir); err != nil {
			return fmt.Errorf("git clone failed: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(installDir, 0755); err != nil {
		return fmt.Errorf("failed to create install dir: %w", err)
	}

	for _, rel := range appFiles {
		src := filepath.Join(i.sourceDir, rel)
		dst := filepath.Join(installDir, rel)
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to install %s: %w", rel, err)
		}
	}

	return nil
}

func (i *Installer) runFromRepo() bool {
	return strings.TrimSpace(i.lookupEnv("RUN_FROM_REPO")) == "1"
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		os.Remove(dst)
		return err
	}

	return out.Close()
}
