// Package profile provides optional runtime profiling for the layer
// interpreter.
//
// Profiling is backed by [github.com/pkg/profile] and compiled in only when
// building with the "pprof" tag:
//
//	go build -tags pprof .
//
// Without the tag every [Config] starts a no-op profiler and [Modes] is
// empty.
//
// # Modes
//
// With the tag, [Modes] lists the supported profiles: allocs, block, clock,
// cpu, goroutine, heap, mem, mutex, thread and trace. A [Config] selects
// one mode and the directory its data is written to:
//
//	cfg := profile.Config{Mode: "cpu", Dir: "/tmp/layer-pprof"}
//	defer cfg.Start().Stop()
//
// Profiles are written as <mode>.pprof and read with go tool pprof:
//
//	layer run --pprof-mode cpu loop.layer
//	go tool pprof -http=: ~/.cache/layer/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
