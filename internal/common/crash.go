// -----------------------------------------------------------------------
// Crash reports - panic capture for long unattended runs
// -----------------------------------------------------------------------

package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// crashDir is where crash reports land. InstallCrashHandler points it at the
// configured log directory.
var crashDir = "./logs"

// InstallCrashHandler prepares the crash report directory. Call it once at
// startup, paired with a deferred RecoverWithCrashFile in main.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		crashDir = logDir
	}
	if err := os.MkdirAll(crashDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "crash handler: cannot create %s: %v\n", crashDir, err)
	}
}

// RecoverWithCrashFile recovers a panic, writes a crash report, and exits.
// Scheduled extraction and the monitor run for days unattended; a report on
// disk beats a scrollback that is gone by morning.
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, currentStack())
		os.Exit(1)
	}
}

// WriteCrashFile renders a crash report and writes it under the crash
// directory. Returns the report path, or "" when even that failed.
func WriteCrashFile(panicVal interface{}, stack string) string {
	path := filepath.Join(crashDir, fmt.Sprintf("crash-%s.log", time.Now().Format("2006-01-02T15-04-05")))

	var b bytes.Buffer
	section := func(name string) { fmt.Fprintf(&b, "=== %s ===\n", name) }

	section("VENARI CRASH REPORT")
	fmt.Fprintf(&b, "Time: %s\nVersion: %s\n\n", time.Now().Format(time.RFC3339), GetFullVersion())

	section("PANIC")
	fmt.Fprintf(&b, "%v\n\n", panicVal)

	section("STACK")
	b.WriteString(stack)
	b.WriteString("\n")

	section("ALL GOROUTINES")
	b.WriteString(allStacks())
	b.WriteString("\n")

	section("RUNTIME")
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Fprintf(&b, "Goroutines: %d\nCPUs: %d\nOS/Arch: %s/%s\n", runtime.NumGoroutine(), runtime.NumCPU(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(&b, "Alloc: %d MB\nSys: %d MB\nNumGC: %d\n", mem.Alloc/1024/1024, mem.Sys/1024/1024, mem.NumGC)

	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "crash handler: cannot write report: %v\n%s", err, b.String())
		return ""
	}

	fmt.Fprintf(os.Stderr, "\n!!! FATAL - crash report saved to %s !!!\nPanic: %v\n", path, panicVal)
	return path
}

// currentStack returns the panicking goroutine's stack.
func currentStack() string {
	buf := make([]byte, 8192)
	return string(buf[:runtime.Stack(buf, false)])
}

// allStacks dumps every goroutine, growing the buffer until the dump fits.
func allStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		if len(buf) >= 64*1024*1024 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}
