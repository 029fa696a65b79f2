package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildMetadata describes the running binary.
type buildMetadata struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

// readBuildMetadata merges ldflags with the module build info.
// ldflags win; missing values fall back to "(devel)" or "unknown".
func readBuildMetadata() buildMetadata {
	meta := buildMetadata{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if meta.Version == "" && info.Main.Version != "" {
			meta.Version = info.Main.Version
		}
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if meta.Commit == "" {
					meta.Commit = shortRevision(setting.Value)
				}
			case "vcs.time":
				if meta.Date == "" {
					meta.Date = setting.Value
				}
			}
		}
	}

	if meta.Version == "" {
		meta.Version = "(devel)"
	}
	if meta.Commit == "" {
		meta.Commit = "unknown"
	}
	if meta.Date == "" {
		meta.Date = "unknown"
	}
	return meta
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// getVersion returns the version string.
func getVersion() string {
	return readBuildMetadata().Version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, build date and Go version of uiscout.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			short, err := cmd.Flags().GetBool("short")
			if err != nil {
				return err
			}

			meta := readBuildMetadata()
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, meta.Version)
				return nil
			}
			fmt.Fprintf(out, "uiscout version %s\n", meta.Version)
			fmt.Fprintf(out, "  commit: %s\n", meta.Commit)
			fmt.Fprintf(out, "  built:  %s\n", meta.Date)
			fmt.Fprintf(out, "  go:     %s\n", meta.GoVersion)
			return nil
		},
	}

	cmd.Flags().BoolP("short", "s", false, "Print only the version number")

	return cmd
}
