package provision

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const unitTemplate = `[Unit]
Description=Roulette Tracker Prediction Server
After=network.target
Wants=network-online.target

[Service]
Type=simple
User={{.User}}
WorkingDirectory={{.WorkingDirectory}}
ExecStart={{.ExecStart}}
Environment=CONFIG_PATH={{.ConfigPath}}

ExecStop=/bin/kill -TERM $MAINPID
KillMode=mixed
KillSignal=SIGTERM
TimeoutStopSec=30

Restart=always
RestartSec=5

StandardOutput=journal
StandardError=journal
SyslogIdentifier=roulette-tracker

[Install]
WantedBy=multi-user.target
`

// UnitData is the fill-in data for the systemd unit template
type UnitData struct {
	User             string
	WorkingDirectory string
	ExecStart        string
	ConfigPath       string
	Port             int
}

// RenderUnit renders the systemd unit file contents
func RenderUnit(data UnitData) (string, error) {
	if data.User == "" {
		data.User = "root"
	}
	if data.WorkingDirectory == "" {
		return "", fmt.Errorf("working directory is required")
	}
	if data.ExecStart == "" {
		data.ExecStart = fmt.Sprintf("%s --host 0.0.0.0 --port %d",
			filepath.Join(data.WorkingDirectory, "roulette-tracker"), data.Port)
	}
	if data.ConfigPath == "" {
		data.ConfigPath = filepath.Join(data.WorkingDirectory, "configs", "config.yaml")
	}

	tmpl, err := template.New("unit").Parse(unitTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse unit template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render unit: %w", err)
	}

	return sb.String(), nil
}

// WriteUnit renders and writes the unit file, overwriting any previous one
func WriteUnit(path string, data UnitData) error {
	contents, err := RenderUnit(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create unit directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		return fmt.Errorf("failed to write unit file: %w", err)
	}

	return nil
}

// UnitPort extracts the --port value from a rendered unit's ExecStart
// line. Returns 0 when no port is declared.
func UnitPort(contents string) int {
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "ExecStart=") {
			continue
		}
		fields := strings.Fields(line)
		for i, field := range fields {
			if field == "--port" && i+1 < len(fields) {
				var port int
				if _, err := fmt.Sscanf(fields[i+1], "%d", &port); err == nil {
					return port
				}
			}
		}
	}
	return 0
}
