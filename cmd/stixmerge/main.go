package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dnswlt/stixmerge/internal/config"
	"github.com/dnswlt/stixmerge/internal/gitclient"
	"github.com/dnswlt/stixmerge/internal/merge"
	"github.com/dnswlt/stixmerge/internal/report"
	"github.com/dnswlt/stixmerge/internal/store"
	"github.com/peterbourgon/ff/v3"
)

var (
	// Version is the application version.
	// It is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
)

// Exit codes.
const (
	exitOK               = 0
	exitUsage            = 1
	exitFailure          = 1
	exitMissingBaseline  = 2
	exitMissingExtension = 3
)

const usage = `Merge the Enterprise ATT&CK bundle with an extension bundle of custom objects,
producing a single dataset JSON suitable for ATT&CK Navigator's customDataURL.

Objects are deduplicated by ID; extension objects win on collision.

Usage:
  stixmerge [flags] [--] <enterprise_bundle_json> <extension_bundle_json> <output_json>

Use -- before the paths if one of them starts with a dash.
Flags can also be read from a file given with -flags, one "name value" pair per line.
No environment variables are read.

Example:
  stixmerge enterprise-attack-17.1.json workbench_export.json data/enterprise_attack_ext.json
`

// Options contains program options that can be set via command-line flags or a flags file.
type Options struct {
	Profile     string
	GitRepo     string
	BaselineRef string
	Report      string
	CheckIDs    bool
	Verbose     bool
	ShowVersion bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	logger := log.New(stderr, "", log.LstdFlags)

	var opts Options
	fs := flag.NewFlagSet("stixmerge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage+"\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.Profile, "profile", "", "Path to a collection profile YAML overriding the collection metadata")
	fs.StringVar(&opts.GitRepo, "git-repo", ".", "Local git repository to read the baseline bundle from (requires -baseline-ref)")
	fs.StringVar(&opts.BaselineRef, "baseline-ref", "", "Git branch, tag or commit to read the baseline bundle at. The baseline path is then relative to the repository root")
	fs.StringVar(&opts.Report, "report", "", "Write a merge report to this path (.md for Markdown, .html for HTML)")
	fs.BoolVar(&opts.CheckIDs, "check-ids", false, "Warn about object IDs that are not of the form <type>--<uuid>")
	fs.BoolVar(&opts.Verbose, "verbose", false, "Log details about the merge")
	fs.BoolVar(&opts.ShowVersion, "version", false, "Print version and exit")
	_ = fs.String("flags", "", "Read further flags from this file (one \"name value\" per line)")

	err := ff.Parse(fs, args,
		ff.WithConfigFileFlag("flags"),
		ff.WithConfigFileParser(ff.PlainParser),
	)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Flag error: %v\n", err)
		return exitUsage
	}
	if opts.ShowVersion {
		fmt.Fprintln(stdout, Version)
		return exitOK
	}

	paths, err := merge.ParsePaths(fs.Args())
	if err != nil {
		fmt.Fprint(stdout, usage)
		return exitUsage
	}

	if err := runMerge(opts, paths, logger, stdout); err != nil {
		var missing *merge.MissingFileError
		if errors.As(err, &missing) {
			fmt.Fprintf(stderr, "[!] %v\n", missing)
			if missing.Input == merge.Baseline {
				return exitMissingBaseline
			}
			return exitMissingExtension
		}
		logger.Printf("Merge failed: %v", err)
		return exitFailure
	}
	return exitOK
}

func runMerge(opts Options, paths merge.Paths, logger *log.Logger, stdout io.Writer) error {
	disk := store.NewDiskStore("")

	cfg := config.Default()
	if opts.Profile != "" {
		var err error
		cfg, err = config.Load(disk, opts.Profile)
		if err != nil {
			return err
		}
		if opts.Verbose {
			logger.Printf("Using profile %s", opts.Profile)
		}
	}

	baselineStore, err := createBaselineStore(opts, disk, logger)
	if err != nil {
		return err
	}

	job := &merge.Job{
		Baseline:  merge.Location{Store: baselineStore, Path: paths.Baseline},
		Extension: merge.Location{Store: disk, Path: paths.Extension},
		Output:    merge.Location{Store: disk, Path: paths.Output},
		Merger:    merge.NewMerger(cfg.Merge, merge.WithIDCheck(opts.CheckIDs)),
	}
	res, err := job.Run()
	if err != nil {
		return err
	}

	if opts.Verbose {
		logger.Print(res)
		logger.Printf("Replaced %d baseline objects, added %d, skipped %d without ID",
			len(res.Replaced), len(res.Added), res.SkippedNoID)
		for _, id := range res.Replaced {
			logger.Printf("Replaced %s", id)
		}
	}
	for _, id := range res.DroppedCollections {
		logger.Printf("Dropped additional collection %s", id)
	}
	for _, err := range res.InvalidIDs {
		logger.Printf("Warning: %v", err)
	}

	printSummary(stdout, paths.Output, res)

	if opts.Report != "" {
		r := report.New(cfg.Report, res, report.Inputs{
			Baseline:  job.Baseline.String(),
			Extension: job.Extension.String(),
			Output:    job.Output.String(),
		})
		if err := report.Write(disk, opts.Report, r); err != nil {
			return err
		}
		if opts.Verbose {
			logger.Printf("Wrote merge report to %s", opts.Report)
		}
	}
	return nil
}

func createBaselineStore(opts Options, disk *store.DiskStore, logger *log.Logger) (store.Store, error) {
	if opts.BaselineRef == "" {
		return disk, nil
	}
	client, err := gitclient.Open(opts.GitRepo)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		logger.Printf("Reading baseline bundle from git repository %s at %q", opts.GitRepo, opts.BaselineRef)
	}
	gs, err := store.NewGitStore(client, opts.BaselineRef)
	if err != nil {
		return nil, err
	}
	return gs, nil
}

func printSummary(w io.Writer, outPath string, res *merge.Result) {
	fmt.Fprintf(w, "[+] Wrote merged dataset to: %s\n", outPath)
	fmt.Fprintf(w, "    Baseline objects: %d\n", res.BaselineCount)
	fmt.Fprintf(w, "    Extension objects merged: %d\n", res.ExtensionMerged)
	fmt.Fprintf(w, "    Final object count: %d\n", res.ObjectCount())
	fmt.Fprintf(w, "    Collection name: %s\n", res.CollectionName())
	fmt.Fprintf(w, "    Collection x_mitre_version: %s\n", res.CollectionVersion())
}
