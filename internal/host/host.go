// Package host defines mu's capability boundary (spec.md §4.6 "Host
// abstraction"): the VM is parameterised over a Host rather than reaching
// directly for os/os.Stdin/net.http, mirroring the teacher's
// pkg/platform.Platform capability-record pattern (Platform.FS()/Console()
// generalised here to mu's io/fs/proc/net builtin surface).
package host

// Host is the capability record the VM calls into for every builtin with a
// non-empty effect set. Two implementations are provided: Real (backed by
// the OS) and Sandbox (refuses fs/proc/net and caps accumulated output).
type Host interface {
	IOPrint(s string) error
	IOPrintln(s string) error
	IOReadln() (string, error)
	FSReadToString(path string) (string, error)
	FSWriteString(path, data string) error
	ProcRun(cmd string, args []string) (int, error)
	HTTPGet(url string) (string, error)
}
