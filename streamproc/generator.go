// Package streamproc owns the mapping from a camera and its RTSP source to a
// runnable transcoding process: a restart-loop script, a systemd unit
// supervising it, and the per-camera HLS output directory.
package streamproc

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// ErrAlreadyExists is returned when a definition already exists for the camera.
	ErrAlreadyExists = errors.New("stream process definition already exists")
	// ErrNotFound is returned when no definition exists for the camera.
	ErrNotFound = errors.New("stream process definition not found")
)

// CommandRunner executes a system command and returns its combined output.
// Tests inject fakes so no systemctl is required.
type CommandRunner interface {
	Run(name string, args ...string) (string, error)
}

// Generator creates, mutates and controls per-camera stream process
// definitions.
type Generator struct {
	scriptsPath string
	livePath    string
	unitsPath   string
	baseURL     string // failure callbacks from the generated script target this host
	runner      CommandRunner
}

// NewGenerator builds a Generator writing under the given artifact paths.
func NewGenerator(scriptsPath, livePath, unitsPath, baseURL string, runner CommandRunner) *Generator {
	return &Generator{
		scriptsPath: scriptsPath,
		livePath:    livePath,
		unitsPath:   unitsPath,
		baseURL:     baseURL,
		runner:      runner,
	}
}

func (g *Generator) scriptPath(cameraID string) string {
	return filepath.Join(g.scriptsPath, fmt.Sprintf("camOnline-%s.sh", cameraID))
}

func (g *Generator) liveDir(cameraID string) string {
	return filepath.Join(g.livePath, cameraID)
}

func (g *Generator) unitPath(cameraID string) string {
	return filepath.Join(g.unitsPath, fmt.Sprintf("camOnline-%s.service", cameraID))
}

func (g *Generator) unitName(cameraID string) string {
	return fmt.Sprintf("camOnline-%s.service", cameraID)
}

// scriptContent renders the restart-loop transcoding script. The loop itself
// notifies the failure intake endpoint before each retry, so a pipeline crash
// is reported even though systemd would restart the unit anyway.
func (g *Generator) scriptContent(cameraID, rtspURL string) string {
	playlist := filepath.Join(g.liveDir(cameraID), "stream.m3u8")
	notifyURL := fmt.Sprintf("%s/api/v1/cameras/cameraFail/%s", g.baseURL, cameraID)

	return fmt.Sprintf(`#!/bin/bash
NOTIFY_URL="%s"

send_notification() {
  local message="$1"
  curl -X PATCH -H "Content-Type: application/json" -d "{\"message\": \"$message\"}" "$NOTIFY_URL"
}

while true; do
  ffmpeg -i %s \
    -s 854x480 \
    -c:v libx264 \
    -b:v 800k \
    -tune zerolatency \
    -preset ultrafast \
    -hls_time 5 \
    -hls_list_size 1 \
    -hls_flags delete_segments \
    %s

  if [ $? -ne 0 ]; then
    send_notification "FFmpeg failed to start streaming from %s."
    sleep 5
  else
    break
  fi
done
`, notifyURL, rtspURL, playlist, rtspURL)
}

func (g *Generator) unitContent(cameraID string) string {
	return fmt.Sprintf(`[Unit]
Description=Stream process for camera %s
After=network.target

[Service]
Type=simple
ExecStart=/bin/bash %s
Restart=on-failure

[Install]
WantedBy=multi-user.target
`, cameraID, g.scriptPath(cameraID))
}

// Create writes the script, unit and output directory for a camera and
// reloads the supervisor. Fails with ErrAlreadyExists rather than silently
// overwriting an existing definition.
func (g *Generator) Create(cameraID, rtspURL string) error {
	scriptFile := g.scriptPath(cameraID)

	for _, dir := range []string{g.scriptsPath, g.livePath, g.unitsPath} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	if _, err := os.Stat(scriptFile); err == nil {
		return fmt.Errorf("script %s: %w", scriptFile, ErrAlreadyExists)
	}

	if err := os.WriteFile(scriptFile, []byte(g.scriptContent(cameraID, rtspURL)), 0644); err != nil {
		return fmt.Errorf("failed to write script: %v", err)
	}
	if err := os.Chmod(scriptFile, 0755); err != nil {
		return fmt.Errorf("failed to set script permissions: %v", err)
	}
	if err := os.MkdirAll(g.liveDir(cameraID), 0755); err != nil {
		return fmt.Errorf("failed to create live directory: %v", err)
	}
	if err := os.WriteFile(g.unitPath(cameraID), []byte(g.unitContent(cameraID)), 0644); err != nil {
		return fmt.Errorf("failed to write unit file: %v", err)
	}

	if _, err := g.runner.Run("systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload supervisor: %v", err)
	}

	log.Printf("streamproc : created stream process definition for camera %s", cameraID)
	return nil
}

var ffmpegInputLine = regexp.MustCompile(`ffmpeg -i .* \\`)

// Update substitutes the RTSP source URL on the script's invocation line,
// leaving the rest of the script and the unit untouched. A running process
// is restarted; otherwise only the supervisor state is reloaded.
func (g *Generator) Update(cameraID, newRtspURL string) error {
	scriptFile := g.scriptPath(cameraID)

	content, err := os.ReadFile(scriptFile)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("script %s: %w", scriptFile, ErrNotFound)
		}
		return fmt.Errorf("failed to read script: %v", err)
	}

	updated := ffmpegInputLine.ReplaceAllString(string(content), fmt.Sprintf(`ffmpeg -i %s \`, newRtspURL))
	if err := os.WriteFile(scriptFile, []byte(updated), 0755); err != nil {
		return fmt.Errorf("failed to write script: %v", err)
	}

	if g.IsActive(cameraID) {
		if _, err := g.runner.Run("systemctl", "restart", g.unitName(cameraID)); err != nil {
			return fmt.Errorf("failed to restart unit: %v", err)
		}
	} else {
		if _, err := g.runner.Run("systemctl", "daemon-reload"); err != nil {
			return fmt.Errorf("failed to reload supervisor: %v", err)
		}
	}

	log.Printf("streamproc : updated RTSP source for camera %s", cameraID)
	return nil
}

// Remove stops the process and deletes the script, unit and output
// directory. Callers treat failures as best-effort: an orphaned artifact
// must not block the camera deletion that triggered the removal.
func (g *Generator) Remove(cameraID string) error {
	scriptFile := g.scriptPath(cameraID)
	if _, err := os.Stat(scriptFile); os.IsNotExist(err) {
		return fmt.Errorf("script %s: %w", scriptFile, ErrNotFound)
	}

	if _, err := g.runner.Run("systemctl", "stop", g.unitName(cameraID)); err != nil {
		log.Printf("streamproc : error stopping unit for camera %s: %v", cameraID, err)
	}

	if err := os.Remove(scriptFile); err != nil {
		return fmt.Errorf("failed to remove script: %v", err)
	}
	if err := os.RemoveAll(g.liveDir(cameraID)); err != nil {
		return fmt.Errorf("failed to remove live directory: %v", err)
	}
	if err := os.Remove(g.unitPath(cameraID)); err != nil {
		return fmt.Errorf("failed to remove unit file: %v", err)
	}

	if _, err := g.runner.Run("systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("failed to reload supervisor: %v", err)
	}

	log.Printf("streamproc : removed stream process definition for camera %s", cameraID)
	return nil
}

// Start clears the camera's output directory and starts its unit. Stale
// segments from a previous activation must not be served after the flip.
func (g *Generator) Start(cameraID string) error {
	if err := g.clearDirectory(g.liveDir(cameraID)); err != nil {
		return fmt.Errorf("failed to clear live directory: %v", err)
	}
	if _, err := g.runner.Run("systemctl", "start", g.unitName(cameraID)); err != nil {
		return fmt.Errorf("failed to start unit: %v", err)
	}
	log.Printf("streamproc : started stream process for camera %s", cameraID)
	return nil
}

// Stop clears the camera's output directory and stops its unit.
func (g *Generator) Stop(cameraID string) error {
	if err := g.clearDirectory(g.liveDir(cameraID)); err != nil {
		return fmt.Errorf("failed to clear live directory: %v", err)
	}
	if _, err := g.runner.Run("systemctl", "stop", g.unitName(cameraID)); err != nil {
		return fmt.Errorf("failed to stop unit: %v", err)
	}
	log.Printf("streamproc : stopped stream process for camera %s", cameraID)
	return nil
}

// IsActive reports whether the camera's unit is active according to the
// supervisor. systemctl prints "inactive" for stopped units, so the output
// is compared exactly, not by substring.
func (g *Generator) IsActive(cameraID string) bool {
	out, err := g.runner.Run("systemctl", "is-active", g.unitName(cameraID))
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "active"
}

func (g *Generator) clearDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
