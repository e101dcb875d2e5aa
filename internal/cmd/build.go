package cmd

import (
	"fmt"
	goruntime "runtime"
	"runtime/debug"

	"github.com/dotcommander/yteam/internal/client"
	"github.com/dotcommander/yteam/internal/storage"
)

// BuildInfo is injected by the build pipeline.
type BuildInfo struct {
	Version   string
	CommitSHA string
}

func (b BuildInfo) shortSHA() string {
	if len(b.CommitSHA) < storage.SHA1Short {
		return ""
	}
	return b.CommitSHA[:storage.SHA1Short]
}

// versionTemplate is the cobra template for --version. The second line
// names the providers this binary can talk to, which differs between the
// default and the yteam_small build.
func versionTemplate(b BuildInfo) string {
	v := "{{.Name}} {{.Version}}"
	if sha := b.shortSHA(); sha != "" {
		v += " (" + sha + ")"
	}
	v += fmt.Sprintf(" %s %s/%s\n", goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
	v += "providers: " + client.Providers + "\n"
	return v
}

// resolveBuildInfo fills what the linker flags left empty from the module
// and VCS data embedded by the go tool.
func resolveBuildInfo(b BuildInfo) BuildInfo {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		if b.Version == "" {
			b.Version = "unknown"
		}
		return b
	}
	if b.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}

	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.CommitSHA == "" {
				b.CommitSHA = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}

	if b.Version == "" {
		b.Version = "dev"
		if sha := b.shortSHA(); sha != "" {
			b.Version += "-" + sha
		}
		if dirty {
			b.Version += "-dirty"
		}
	}
	return b
}
