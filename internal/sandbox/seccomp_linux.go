//go:build linux

package sandbox

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
)

// Minimal seccomp BPF filter: reject socket(AF_UNIX, ...) with EPERM,
// allow everything else. Defence in depth against a child talking to
// local Unix-domain daemons it has no business reaching (spec.md §4.6's
// "Seccomp filter (Linux)").
const (
	afUnix             = 1
	seccompRetAllow    = 0x7fff0000
	seccompRetErrno    = 0x00050000
	eperm              = 1
	bpfLD              = 0x00
	bpfW               = 0x00
	bpfABS             = 0x20
	bpfJMP             = 0x05
	bpfJEQ             = 0x10
	bpfK               = 0x00
	bpfRET             = 0x06
	seccompDataNR      = 0
	seccompDataArgZero = 16
)

func syscallSocketNumber() uint32 {
	switch runtime.GOARCH {
	case "amd64":
		return 41
	case "arm64":
		return 198
	default:
		return 0
	}
}

type bpfInstruction struct {
	code uint16
	jt   uint8
	jf   uint8
	k    uint32
}

func generateSeccompBPF() []byte {
	sysSocket := syscallSocketNumber()
	filter := []bpfInstruction{
		{bpfLD | bpfW | bpfABS, 0, 0, seccompDataNR},
		{bpfJMP | bpfJEQ | bpfK, 0, 3, sysSocket},
		{bpfLD | bpfW | bpfABS, 0, 0, seccompDataArgZero},
		{bpfJMP | bpfJEQ | bpfK, 0, 1, afUnix},
		{bpfRET | bpfK, 0, 0, seccompRetErrno | eperm},
		{bpfRET | bpfK, 0, 0, seccompRetAllow},
	}

	buf := make([]byte, 0, len(filter)*8)
	for _, ins := range filter {
		buf = binary.NativeEndian.AppendUint16(buf, ins.code)
		buf = append(buf, ins.jt, ins.jf)
		buf = binary.NativeEndian.AppendUint32(buf, ins.k)
	}
	return buf
}

// openSeccompFilterFile writes the BPF program to workDir/seccomp.bpf and
// reopens it for reading so it can be handed to the child via
// exec.Cmd.ExtraFiles (bwrap's "--seccomp FD" expects an inherited file
// descriptor, not a path).
func openSeccompFilterFile(workDir string) (*os.File, error) {
	path := filepath.Join(workDir, "seccomp.bpf")
	if err := os.WriteFile(path, generateSeccompBPF(), 0o600); err != nil {
		return nil, err
	}
	return os.Open(path)
}
