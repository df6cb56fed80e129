// Package toolchain manages the external statistical-genetics binaries the
// pipeline shells out to: PLINK 1.9, PLINK 2, and GCTA. Versions are pinned
// through the download URL, the same way the container build does it.
package toolchain

import (
	"fmt"
	"os/exec"
	"strings"
)

// DefaultBinDir is the fixed system path the container build installs the
// binaries into.
const DefaultBinDir = "/usr/local/bin"

// Binary describes one pinned external tool.
type Binary struct {
	// Name is the executable name looked up on PATH.
	Name string `json:"name"`
	// Version is the pinned release, embedded in the download URL. There is
	// no checksum pinning upstream; version drift surfaces as a fetch or
	// version-report mismatch at install time.
	Version string `json:"version"`
	// URL is the release archive for linux x86_64.
	URL string `json:"url"`
	// ArchiveSubdir is the directory inside the archive holding the
	// executable; empty when the archive is flat.
	ArchiveSubdir string `json:"archive_subdir,omitempty"`
	// VersionArg is the flag that makes the tool print its version.
	VersionArg string `json:"version_arg"`
	// VersionPrefix is the expected start of the version report, used to
	// tell the tool apart from an unrelated binary with the same name.
	VersionPrefix string `json:"version_prefix"`
}

// Registry returns the pinned toolchain. Order matters only for reporting.
func Registry() []Binary {
	return []Binary{
		{
			Name:          "plink",
			Version:       "1.9.0-b.7.7",
			URL:           "https://s3.amazonaws.com/plink1-assets/plink_linux_x86_64_20241022.zip",
			VersionArg:    "--version",
			VersionPrefix: "PLINK v1.9",
		},
		{
			Name:          "plink2",
			Version:       "2.0.0-a.6.9",
			URL:           "https://s3.amazonaws.com/plink2-assets/alpha6/plink2_linux_x86_64_20241114.zip",
			VersionArg:    "--version",
			VersionPrefix: "PLINK v2",
		},
		{
			Name:          "gcta64",
			Version:       "1.94.1",
			URL:           "https://yanglab.westlake.edu.cn/software/gcta/bin/gcta-1.94.1-linux-kernel-3-x86_64.zip",
			ArchiveSubdir: "gcta-1.94.1-linux-kernel-3-x86_64",
			VersionArg:    "--version",
			VersionPrefix: "GCTA",
		},
	}
}

// Status is the detection result for one binary.
type Status struct {
	Name      string `json:"name"`
	Found     bool   `json:"found"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Pinned    string `json:"pinned_version"`
	// Mismatch is set when the binary answers its version flag with
	// something other than the expected tool banner.
	Mismatch bool `json:"mismatch,omitempty"`
}

// Probe locates a binary on PATH and asks it for its version string.
func Probe(bin Binary) Status {
	st := Status{Name: bin.Name, Pinned: bin.Version}

	path, err := exec.LookPath(bin.Name)
	if err != nil {
		return st
	}
	st.Found = true
	st.Path = path

	out, err := exec.Command(bin.Name, bin.VersionArg).CombinedOutput()
	if err != nil && len(out) == 0 {
		st.Mismatch = true
		return st
	}

	report := firstLine(string(out))
	st.Version = report
	if bin.VersionPrefix != "" && !strings.HasPrefix(report, bin.VersionPrefix) {
		st.Mismatch = true
	}
	return st
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Info is the complete detection report across the toolchain plus the
// container fallback.
type Info struct {
	Binaries      []Status `json:"binaries"`
	Complete      bool     `json:"complete"` // all three tools found
	HasDocker     bool     `json:"has_docker"`
	DockerVersion string   `json:"docker_version,omitempty"`
	// ExecutionMode is "native", "docker", or "unavailable".
	ExecutionMode   string           `json:"execution_mode"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendation represents an execution method recommendation
type Recommendation struct {
	Method          string `json:"method"` // "native" or "docker"
	Priority        int    `json:"priority"`
	Reason          string `json:"reason"`
	Warning         string `json:"warning,omitempty"`
	CommandTemplate string `json:"command_template"`
}

// Detect probes every pinned binary and Docker, and derives the execution
// recommendations.
func Detect() *Info {
	info := &Info{Complete: true}

	for _, bin := range Registry() {
		st := Probe(bin)
		if !st.Found || st.Mismatch {
			info.Complete = false
		}
		info.Binaries = append(info.Binaries, st)
	}

	if out, err := exec.Command("docker", "--version").CombinedOutput(); err == nil {
		info.HasDocker = true
		info.DockerVersion = firstLine(string(out))
	}

	switch {
	case info.Complete:
		info.ExecutionMode = "native"
	case info.HasDocker:
		info.ExecutionMode = "docker"
	default:
		info.ExecutionMode = "unavailable"
	}

	info.Recommendations = buildRecommendations(info)
	return info
}

func buildRecommendations(info *Info) []Recommendation {
	var recs []Recommendation
	priority := 1

	if info.Complete {
		recs = append(recs, Recommendation{
			Method:          "native",
			Priority:        priority,
			Reason:          "All pipeline binaries found on PATH",
			CommandTemplate: "gwasflow [command] -config pipeline.json",
		})
		priority++
	}

	if info.HasDocker {
		rec := Recommendation{
			Method:          "docker",
			Priority:        priority,
			Reason:          "Container image ships the pinned toolchain",
			CommandTemplate: "docker run --rm -v $(pwd):/data ideal-genom/gwaskit [command] -config /data/pipeline.json",
		}
		if !info.Complete {
			rec.Reason = "Pipeline binaries missing locally; container image ships the pinned toolchain"
		}
		recs = append(recs, rec)
		priority++
	}

	if !info.Complete && !info.HasDocker {
		recs = append(recs, Recommendation{
			Method:          "native",
			Priority:        priority,
			Reason:          "Neither the full toolchain nor Docker is available",
			Warning:         fmt.Sprintf("Install the missing tools first: gwasflow install-tools -dir %s", DefaultBinDir),
			CommandTemplate: "gwasflow install-tools -dir " + DefaultBinDir,
		})
	}

	return recs
}
