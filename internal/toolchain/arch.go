package toolchain

import (
	"runtime"

	"github.com/forgebuild/forge/internal/model"
)

// ArchitectureError is a model.KindArchitectureUnsupported failure: the
// requested target architecture is not supported by the resolved
// toolchain or host.
type ArchitectureError struct {
	Requested string
	Reason    string
}

func (e *ArchitectureError) Error() string {
	return "architecture " + e.Requested + " unsupported: " + e.Reason
}

// ResolveArchitecture normalizes a user-supplied architecture string into
// a model.Architecture. hostOS/hostCPU are the
// detected host values (normally runtime.GOOS/runtime.GOARCH, parameterized
// here for testability).
func ResolveArchitecture(raw, hostOS, hostCPU string) (model.Architecture, error) {
	if model.IsUniversalMacOS(raw) {
		if hostOS != "darwin" {
			return model.Architecture{}, &ArchitectureError{Requested: raw, Reason: "universal binaries require a macOS toolchain"}
		}
		return model.Architecture{
			CPU:          model.CPUUniversalMacOS,
			HostTriple:   hostTriple(hostOS, hostCPU),
			TargetTriple: "universal-apple-darwin",
			ExtraOptions: []string{"-arch", "x86_64", "-arch", "arm64"},
		}, nil
	}

	cpu, err := model.NormalizeCPU(raw)
	if err != nil {
		return model.Architecture{}, &ArchitectureError{Requested: raw, Reason: err.Error()}
	}

	host, err := model.NormalizeCPU(hostCPU)
	if err != nil {
		host = model.CPUUnknown
	}

	return model.Architecture{
		CPU:          cpu,
		HostTriple:   hostTriple(hostOS, hostCPU),
		TargetTriple: targetTriple(cpu, hostOS),
		ExtraOptions: extraOptionsFor(cpu, host, hostOS),
	}, nil
}

func hostTriple(goos, goarch string) string {
	vendor, osName, env := tripleParts(goos)
	cpu, err := model.NormalizeCPU(goarch)
	if err != nil {
		cpu = model.CPUUnknown
	}
	return model.CanonicalTriple(cpu, vendor, osName, env)
}

func targetTriple(cpu model.CPU, goos string) string {
	vendor, osName, env := tripleParts(goos)
	return model.CanonicalTriple(cpu, vendor, osName, env)
}

func tripleParts(goos string) (vendor, osName, env string) {
	switch goos {
	case "windows":
		return "pc", "windows", "msvc"
	case "darwin":
		return "apple", "darwin", ""
	case "linux":
		return "pc", "linux", "gnu"
	default:
		return "pc", goos, ""
	}
}

// extraOptionsFor returns architecture-implied extra compiler flags, e.g.
// cross-compiling on GCC/Clang via -m32/-m64/-arch.
func extraOptionsFor(cpu, host model.CPU, goos string) []string {
	if goos == "darwin" {
		switch cpu {
		case model.CPUX64:
			return []string{"-arch", "x86_64"}
		case model.CPUArm64:
			return []string{"-arch", "arm64"}
		}
		return nil
	}
	if cpu == host {
		return nil
	}
	switch cpu {
	case model.CPUX86:
		return []string{"-m32"}
	case model.CPUX64:
		return []string{"-m64"}
	}
	return nil
}

// HostArchitecture reports the running process's own GOOS/GOARCH, used as
// the default when a project description doesn't specify one.
func HostArchitecture() (goos, goarch string) {
	return runtime.GOOS, runtime.GOARCH
}
