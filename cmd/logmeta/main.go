// logmeta inspects and removes the metadata sidecars that rotating and
// dated file endpoints attach to their logfiles. The sidecar is plain
// JSON next to the logfile; this tool exists so operators can check a
// rotation position or reset it without touching the log content.
//
// Usage:
//
//	logmeta show <logfile>
//	logmeta remove <logfile>
//	logmeta list <dir> [pattern]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	"github.com/orgoj/logfanout/internal/filemeta"
	"github.com/orgoj/logfanout/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.VersionInfo())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "show":
		err = show(args[1])
	case "remove":
		err = remove(args[1])
	case "list":
		pattern := "*"
		if len(args) > 2 {
			pattern = args[2]
		}
		err = list(args[1], pattern)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: logmeta show <logfile> | remove <logfile> | list <dir> [pattern]")
}

func show(logPath string) error {
	meta, err := filemeta.Load(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no metadata sidecar for '%s'", logPath)
		}
		return err
	}
	printMeta(logPath, meta)
	return nil
}

func remove(logPath string) error {
	if err := filemeta.Remove(logPath); err != nil {
		return err
	}
	fmt.Printf("Removed metadata sidecar for '%s'\n", logPath)
	return nil
}

// list prints every sidecar in dir whose logfile basename matches the
// glob pattern.
func list(dir, pattern string) error {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory '%s': %w", dir, err)
	}

	found := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), filemeta.Suffix) {
			continue
		}
		logName := strings.TrimSuffix(entry.Name(), filemeta.Suffix)
		if !matcher.Match(logName) {
			continue
		}

		logPath := filepath.Join(dir, logName)
		meta, err := filemeta.Load(logPath)
		if err != nil {
			fmt.Printf("%s: unreadable metadata: %v\n", logPath, err)
			continue
		}
		printMeta(logPath, meta)
		found++
	}

	if found == 0 {
		fmt.Printf("No metadata sidecars matching '%s' in '%s'\n", pattern, dir)
	}
	return nil
}

func printMeta(logPath string, meta filemeta.Meta) {
	switch meta.Endpoint {
	case filemeta.KindRotating:
		fmt.Printf("%s: rotating, slot %d of %d, current file %s, updated %s\n",
			logPath, meta.Index, meta.Slots, meta.CurrentPath, meta.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	case filemeta.KindDated:
		fmt.Printf("%s: dated, date key %s, updated %s\n",
			logPath, meta.DateKey, meta.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
	default:
		fmt.Printf("%s: unknown endpoint kind '%s'\n", logPath, meta.Endpoint)
	}
}
