//go:build !unix

package gateways

import "os/exec"

// killProcessGroup is a no-op where process groups are unavailable; the
// default cancellation kills the shell only.
func killProcessGroup(*exec.Cmd) {}
