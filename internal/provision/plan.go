package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rouletted/roulette-tracker/internal/config"
	"github.com/rouletted/roulette-tracker/internal/logging"
)

// Step is one unit of work in the install plan. Best-effort steps log
// their failure and let the run continue; all others abort it.
type Step struct {
	Name       string
	BestEffort bool
	Run        func(ctx context.Context) error
}

// Installer provisions the host: packages, application files, systemd
// unit, and the running service.
type Installer struct {
	cfg       config.ProvisionConfig
	sys       Systemd
	runner    CommandRunner
	out       io.Writer
	sourceDir string
	lookupEnv func(string) string
	sleep     func(time.Duration)
}

// Option customizes an Installer
type Option func(*Installer)

// WithRunner replaces the command runner
func WithRunner(r CommandRunner) Option {
	return func(i *Installer) { i.runner = r }
}

// WithOutput redirects the installer's progress output
func WithOutput(w io.Writer) Option {
	return func(i *Installer) { i.out = w }
}

// WithSourceDir sets the directory application files are copied from
func WithSourceDir(dir string) Option {
	return func(i *Installer) { i.sourceDir = dir }
}

// WithEnv replaces environment lookup
func WithEnv(fn func(string) string) Option {
	return func(i *Installer) { i.lookupEnv = fn }
}

// WithSleep replaces the settle delay
func WithSleep(fn func(time.Duration)) Option {
	return func(i *Installer) { i.sleep = fn }
}

// NewInstaller creates an installer for the given provision config
func NewInstaller(cfg config.ProvisionConfig, sys Systemd, opts ...Option) *Installer {
	inst := &Installer{
		cfg:       cfg,
		sys:       sys,
		runner:    ExecRunner{},
		out:       os.Stdout,
		sourceDir: ".",
		lookupEnv: os.Getenv,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Plan returns the ordered step list. Rerunning the plan on an already
// provisioned host converges to the same state: the install dir is
// recreated, the unit file overwritten, and enable/restart are
// idempotent on the systemd side.
func (i *Installer) Plan() []Step {
	return []Step{
		{Name: "stop service", BestEffort: true, Run: i.stopService},
		{Name: "install packages", Run: i.installPackages},
		{Name: "fetch application", Run: i.acquireSource},
		{Name: "write systemd unit", Run: i.writeUnit},
		{Name: "reload and enable", Run: i.reloadAndEnable},
		{Name: "restart service", Run: i.restartService},
		{Name: "report status", BestEffort: true, Run: i.reportStatus},
	}
}

// Execute runs the plan in order
func (i *Installer) Execute(ctx context.Context) error {
	for n, step := range i.Plan() {
		fmt.Fprintf(i.out, "[%d/%d] %s\n", n+1, len(i.Plan()), step.Name)

		if err := step.Run(ctx); err != nil {
			if step.BestEffort {
				logging.L().Warn("install step failed, continuing",
					"step", step.Name, "error", err)
				continue
			}
			return fmt.Errorf("step %q: %w", step.Name, err)
		}
	}
	return nil
}

// stopService stops a previously installed service. On a fresh host
// there is nothing to stop, which is why this step is best-effort.
func (i *Installer) stopService(ctx context.Context) error {
	return i.sys.StopUnit(i.cfg.ServiceName)
}

func (i *Installer) installPackages(ctx context.Context) error {
	if len(i.cfg.Packages) == 0 {
		return nil
	}

	if _, err := i.runner.Run(ctx, "apt-get", "update"); err != nil {
		return fmt.Errorf("apt-get update failed: %w", err)
	}

	args := append([]string{"install", "-y"}, i.cfg.Packages...)
	if _, err := i.runner.Run(ctx, "apt-get", args...); err != nil {
		return fmt.Errorf("apt-get install failed: %w", err)
	}

	return nil
}

func (i *Installer) writeUnit(ctx context.Context) error {
	return WriteUnit(i.cfg.UnitPath, UnitData{
		User:             i.cfg.RunAsUser,
		WorkingDirectory: i.cfg.InstallDir,
		Port:             i.cfg.Port,
	})
}

func (i *Installer) reloadAndEnable(ctx context.Context) error {
	if err := i.sys.DaemonReload(); err != nil {
		return err
	}
	return i.sys.EnableUnit(i.cfg.ServiceName)
}

func (i *Installer) restartService(ctx context.Context) error {
	return i.sys.RestartUnit(i.cfg.ServiceName)
}

// reportStatus waits for the service to settle, then prints its state
// and the URL it should be reachable at. The port is read back from the
// unit file on disk rather than the config, so the printed URL always
// matches what systemd will actually run.
func (i *Installer) reportStatus(ctx context.Context) error {
	i.sleep(3 * time.Second)

	state, err := i.sys.ActiveState(i.cfg.ServiceName)
	if err != nil {
		return err
	}
	fmt.Fprintf(i.out, "service %s is %s\n", i.cfg.ServiceName, state)

	port := i.cfg.Port
	if contents, err := os.ReadFile(i.cfg.UnitPath); err == nil {
		if p := UnitPort(string(contents)); p != 0 {
			port = p
		}
	}

	fmt.Fprintf(i.out, "server should be reachable at %s\n", ServiceURL(PrimaryIP(), port))
	return nil
}
