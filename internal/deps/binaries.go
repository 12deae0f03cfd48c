package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Binary is an external program the renderer shells out to.
type Binary struct {
	Label    string
	Command  string
	Purpose  string
	Optional bool
}

// Probe is the lookup outcome for one Binary. Path is the resolved
// executable when found.
type Probe struct {
	Binary
	Path string
	Err  error
}

// Available reports whether the binary resolved to an executable.
func (p Probe) Available() bool { return p.Err == nil && p.Path != "" }

// Detail is the path when available, otherwise the lookup failure.
func (p Probe) Detail() string {
	if p.Available() {
		return p.Path
	}
	if p.Err != nil {
		return p.Err.Error()
	}
	return "not checked"
}

// Encoders lists ffmpeg, which every render needs, and ffprobe, which only
// fills the duration column of the upload log.
func Encoders(ffmpegBinary, ffprobeBinary string) []Binary {
	return []Binary{
		{Label: "FFmpeg", Command: ResolveBinary(ffmpegBinary, "ffmpeg"), Purpose: "renders videos"},
		{Label: "FFprobe", Command: ResolveBinary(ffprobeBinary, "ffprobe"), Purpose: "reads clip duration", Optional: true},
	}
}

// Lookup resolves each binary through exec.LookPath.
func Lookup(binaries []Binary) []Probe {
	probes := make([]Probe, 0, len(binaries))
	for _, bin := range binaries {
		probe := Probe{Binary: bin}
		switch cmd := strings.TrimSpace(bin.Command); cmd {
		case "":
			probe.Err = fmt.Errorf("%s command not configured", bin.Label)
		default:
			path, err := exec.LookPath(cmd)
			if err != nil {
				probe.Err = fmt.Errorf("binary %q not found", cmd)
			} else {
				probe.Path = path
			}
		}
		probes = append(probes, probe)
	}
	return probes
}

// ResolveBinary returns configured, or fallback when configured is empty.
// A relative name that exists as an executable in the working directory is
// made absolute; anything else is left for a PATH lookup.
func ResolveBinary(configured, fallback string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return fallback
	}
	if filepath.IsAbs(configured) {
		return configured
	}
	info, err := os.Stat(configured)
	if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return configured
	}
	if abs, err := filepath.Abs(configured); err == nil {
		return abs
	}
	return configured
}
