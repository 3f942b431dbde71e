package benchmark

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// HostInfo describes the machine a benchmark ran on.
type HostInfo struct {
	CPU           string
	Vendor        string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	AVX512        bool
	GOOS          string
	GOARCH        string
	GoVersion     string
	GOMAXPROCS    int
}

// Host returns information about the current machine.
func Host() HostInfo {
	return HostInfo{
		CPU:           cpuid.CPU.BrandName,
		Vendor:        cpuid.CPU.VendorString,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
		GOOS:          runtime.GOOS,
		GOARCH:        runtime.GOARCH,
		GoVersion:     runtime.Version(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
	}
}

func (h HostInfo) String() string {
	cpu := h.CPU
	if cpu == "" {
		cpu = "unknown CPU"
	}
	return fmt.Sprintf("%s (%d cores, %d threads) %s/%s %s",
		cpu, h.PhysicalCores, h.LogicalCores, h.GOOS, h.GOARCH, h.GoVersion)
}
