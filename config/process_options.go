package config

import (
	"fmt"
	"os/exec"

	"github.com/vnetsim/vnetsim/simerrors"
	"github.com/vnetsim/vnetsim/simtime"
)

// ProcessOptions describes a virtual process to run on a host.
type ProcessOptions struct {
	RawPath     string   `yaml:"path"`
	Args        []string `yaml:"args"`
	Environment string   `yaml:"environment"`
	StartTimeMs uint64   `yaml:"start_time_ms"`
	StopTimeMs  uint64   `yaml:"stop_time_ms"`
	Quantity    uint64   `yaml:"quantity"`
}

// GetRawPath returns the original, unresolved executable path string, for
// use in error messages.
func (p *ProcessOptions) GetRawPath() string { return p.RawPath }

// GetPath resolves the process's executable path on $PATH or as a literal
// file path, returning ErrPluginPath if it cannot be found.
func (p *ProcessOptions) GetPath() (string, error) {
	resolved, err := exec.LookPath(p.RawPath)
	if err != nil {
		return "", fmt.Errorf("%w: %s", simerrors.ErrPluginPath, p.RawPath)
	}
	return resolved, nil
}

// GetArgs returns the process's argument vector, excluding argv[0].
func (p *ProcessOptions) GetArgs() []string { return p.Args }

// GetEnvironment returns the raw environment string to pass to the process.
func (p *ProcessOptions) GetEnvironment() string { return p.Environment }

// GetStartTime returns the process start time, in nanoseconds.
func (p *ProcessOptions) GetStartTime() simtime.Time {
	return simtime.Time(p.StartTimeMs) * simtime.Millisecond
}

// GetStopTime returns the process stop time, in nanoseconds.
func (p *ProcessOptions) GetStopTime() simtime.Time {
	return simtime.Time(p.StopTimeMs) * simtime.Millisecond
}

// GetQuantity returns how many copies of this process to start per host.
func (p *ProcessOptions) GetQuantity() uint64 {
	if p.Quantity == 0 {
		return 1
	}
	return p.Quantity
}
