package envbuild

import "os/exec"

// InterpreterAvailability reports which language runtimes were found on
// PATH at startup. Generalised from the teacher's Node/tsx-only probe to
// every language the manifest parser recognises.
type InterpreterAvailability struct {
	Python bool
	Node   bool
	Bash   bool
}

// ProbeInterpreters performs the synchronous PATH checks for all three
// runtimes. Unlike the teacher's probe, it never launches a background
// install — package installation is the environment builder's job, scoped
// to one skill's resolved packages, not a global tool install.
func ProbeInterpreters() InterpreterAvailability {
	return InterpreterAvailability{
		Python: lookPathAny("python3", "python"),
		Node:   lookPathAny("node"),
		Bash:   lookPathAny("bash", "sh"),
	}
}

func lookPathAny(names ...string) bool {
	for _, n := range names {
		if _, err := exec.LookPath(n); err == nil {
			return true
		}
	}
	return false
}
