package config

import (
	"os/exec"
)

type VideoSrc []string

func (s VideoSrc) Empty() bool {
	return len(s) == 0
}

type VideoShellSrc VideoSrc

func (s VideoShellSrc) Empty() bool {
	return VideoSrc(s).Empty()
}

func (s VideoShellSrc) ToCommand() (*exec.Cmd, error) {
	if len(s) == 0 {
		return nil, nil
	}

	return exec.Command(s[0], s[1:]...), nil
}

// SetupCommand runs once before a source starts capturing,
// e.g. ["v4l2-ctl", "-d", "/dev/video0", "--set-ctrl=exposure_auto=1"]
type SetupCommand []string

func (s SetupCommand) ToCommand() (*exec.Cmd, error) {
	if len(s) == 0 {
		return nil, nil
	}

	return exec.Command(s[0], s[1:]...), nil
}
