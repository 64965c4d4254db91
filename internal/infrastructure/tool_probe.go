package infrastructure

import "os/exec"

// ExecProbe checks whether a binary is resolvable on PATH
type ExecProbe struct {
	binary string
}

// NewExecProbe creates a probe for binary (e.g. "ffmpeg")
func NewExecProbe(binary string) *ExecProbe {
	return &ExecProbe{binary: binary}
}

// Available returns the resolved path and whether the binary was found
func (p *ExecProbe) Available() (string, bool) {
	if p.binary == "" {
		return "", false
	}
	path, err := exec.LookPath(p.binary)
	if err != nil {
		return "", false
	}
	return path, true
}
