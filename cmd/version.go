package cmd

import "runtime/debug"

// Overridable at link time with -ldflags "-X github.com/jqshop/labelgen/cmd.version=v1.2.0"
var (
	version = ""
	commit  = ""
)

// BuildVersion returns the labelgen release and VCS revision baked into the binary
func BuildVersion() (string, string) {
	info, _ := debug.ReadBuildInfo()
	return resolveVersion(version, commit, info)
}

func resolveVersion(v, c string, info *debug.BuildInfo) (string, string) {
	if info != nil {
		if v == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
		if c == "" {
			var dirty bool
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.modified":
					dirty = s.Value == "true"
				}
			}
			if dirty && c != "" {
				c += "-dirty"
			}
		}
	}
	if v == "" {
		v = "dev"
	}
	return v, c
}
