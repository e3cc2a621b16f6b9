package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"

	mcarecover "github.com/mattkeenan/mcarecover/pkg"
)

const programName = "mcarecover"

// exitInterrupted follows the shell convention for SIGINT
const exitInterrupted = 130

func defineOptions() *ParsedOptions {
	options := NewParsedOptions()
	options.DefineOption("help", "h", OptionTypeBool, "false", "Show help message")
	options.DefineOption("version", "", OptionTypeBool, "false", "Show version information")
	options.DefineOption("verbose", "v", OptionTypeInt, "0", "Enable verbose output (repeat for more)")
	options.DefineOption("world-path", "w", OptionTypeString, "", "World directory containing region/")
	options.DefineOption("duplicate-behaviour", "d", OptionTypeString, "", "take-current or take-untracked (default: ask)")
	options.DefineOption("dry-run", "n", OptionTypeBool, "false", "Report recoveries without writing")
	options.DefineOption("backup", "b", OptionTypeBool, "true", "Back up region files before rewriting")
	options.DefineOption("quiet", "q", OptionTypeBool, "false", "Suppress non-error output")
	options.DefineOption("format", "", OptionTypeString, "", "Report format (human|json)")
	options.DefineOption("config", "", OptionTypeString, "", "Config file (default: <world>/mcarecover.ini)")
	options.DefineOption("debug", "", OptionTypeString, "", "Comma-separated debug flags (scan,resolve,header)")
	options.DefineOption("set", "", OptionTypeList, "", "Override a config key (key:value, repeatable)")
	return options
}

func main() {
	options := defineOptions()

	if err := options.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		fmt.Fprintf(os.Stderr, "Try '%s --help' for more information.\n", programName)
		os.Exit(1)
	}

	if options.GetBool("version") {
		fmt.Printf("%s %s\n", programName, getVersionString())
		os.Exit(0)
	}

	args := options.GetArgs()
	if options.GetBool("help") || (len(args) == 0 && !options.IsSet("world-path")) {
		showHelp(os.Stdout, options)
		os.Exit(0)
	}

	if len(args) > 0 && args[0] == "help" {
		if len(args) > 1 && args[1] == "backups" {
			showBackupsHelp(os.Stdout)
		} else {
			showHelp(os.Stdout, options)
		}
		return
	}

	if len(args) > 0 && args[0] == "backups" {
		if err := runBackups(args[1:], options); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
			os.Exit(1)
		}
		return
	}

	os.Exit(runRecover(args, options))
}

func showHelp(w io.Writer, options *ParsedOptions) {
	fmt.Fprintf(w, "%s - recover lost chunk entries in Minecraft region files\n\n", programName)
	fmt.Fprintf(w, "Usage: %s [OPTIONS] <world-path>\n", programName)
	fmt.Fprintf(w, "       %s [OPTIONS] backups <world-path> <list|pop|discard|clear> [region-file]\n\n", programName)

	fmt.Fprintf(w, "Options:\n")
	options.ShowUsage(w)

	fmt.Fprintf(w, "\nDuplicate behaviour:\n")
	fmt.Fprintf(w, "  take-current     Keep the header's entry when unknown entries also exist\n")
	fmt.Fprintf(w, "  take-untracked   Prefer an unknown entry, asking which one when there are several\n")
	fmt.Fprintf(w, "  (unset)          Ask for every ambiguous chunk\n\n")

	fmt.Fprintf(w, "Examples:\n")
	fmt.Fprintf(w, "  %s ~/.minecraft/saves/world\n", programName)
	fmt.Fprintf(w, "  %s -n -v ~/.minecraft/saves/world\n", programName)
	fmt.Fprintf(w, "  %s --duplicate-behaviour=take-current --format=json world\n", programName)
	fmt.Fprintf(w, "  %s backups world pop r.0.-1.mca\n", programName)
}

func showBackupsHelp(w io.Writer) {
	fmt.Fprintf(w, "%s backups - manage region file backups taken before rewrites\n\n", programName)
	fmt.Fprintf(w, "Usage: %s [OPTIONS] backups <world-path> <subcommand> [region-file]\n\n", programName)
	fmt.Fprintf(w, "Subcommands:\n")
	fmt.Fprintf(w, "  list      List backups (newest first)\n")
	fmt.Fprintf(w, "  pop       Restore the latest backup and remove it from the stack\n")
	fmt.Fprintf(w, "  discard   Remove the latest backup without restoring it\n")
	fmt.Fprintf(w, "  clear     Remove all backups\n\n")
	fmt.Fprintf(w, "Without a region file the subcommand applies to every region in the world.\n")
	fmt.Fprintf(w, "Backups are stored in <world>/region/.mcarecover/backups/<region-file>/.\n")
}

// loadOptions merges defaults, the config file, --set overrides and explicit flags, in that order
func loadOptions(worldPath string, options *ParsedOptions) (mcarecover.Options, *mcarecover.Config, error) {
	cfg, err := mcarecover.FindConfig(options.GetString("config"), worldPath)
	if err != nil {
		return mcarecover.Options{}, nil, err
	}

	overrides := append([]string{}, options.GetList("set")...)
	if options.IsSet("duplicate-behaviour") {
		overrides = append(overrides, "duplicate_behaviour:"+options.GetString("duplicate-behaviour"))
	}
	if options.IsSet("dry-run") {
		overrides = append(overrides, "dry_run:"+strconv.FormatBool(options.GetBool("dry-run")))
	}
	if options.IsSet("backup") {
		overrides = append(overrides, "backup:"+strconv.FormatBool(options.GetBool("backup")))
	}
	if options.IsSet("format") {
		overrides = append(overrides, "format:"+options.GetString("format"))
	}
	if options.IsSet("verbose") {
		overrides = append(overrides, "level:"+strconv.Itoa(options.GetInt("verbose")))
	}
	if options.IsSet("debug") {
		overrides = append(overrides, "debug:"+options.GetString("debug"))
	}
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return mcarecover.Options{}, nil, err
	}

	opts, err := cfg.Options()
	if err != nil {
		return mcarecover.Options{}, nil, err
	}

	verbose := cfg.GetVerboseConfig()
	level := verbose.Level
	if options.GetBool("quiet") {
		level = 0
	}
	mcarecover.SetVerboseLevel(level)
	mcarecover.SetDebugFlags(verbose.Debug)

	return opts, cfg, nil
}

func runRecover(args []string, options *ParsedOptions) int {
	worldPath := options.GetString("world-path")
	if worldPath == "" {
		worldPath = args[0]
	} else if len(args) > 0 {
		fmt.Fprintf(os.Stderr, "%s: unexpected argument '%s' with --world-path\n", programName, args[0])
		return 1
	}
	if len(args) > 1 {
		fmt.Fprintf(os.Stderr, "%s: unexpected argument '%s'\n", programName, args[1])
		return 1
	}

	opts, cfg, err := loadOptions(worldPath, options)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return 1
	}
	if cfg.Path() != "" {
		mcarecover.VerboseLog(1, "Using config %s", cfg.Path())
	}

	opts.Asker = newTerminalAsker(os.Stdin, os.Stdout)
	opts.Out = os.Stdout
	if options.GetBool("quiet") {
		opts.Out = nil
	}

	shutdown := setupSignalHandler()
	batch, err := mcarecover.RecoverWorld(worldPath, opts, shutdown)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		return 1
	}

	for _, failure := range batch.Failures {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, failure)
	}
	if opts.Out != nil && opts.Format != mcarecover.FormatJSON && mcarecover.GetVerboseLevel() >= 1 {
		mcarecover.WriteBatchSummary(opts.Out, batch)
	}

	switch {
	case batch.Interrupted:
		return exitInterrupted
	case batch.Failed():
		return 1
	default:
		return 0
	}
}

func runBackups(args []string, options *ParsedOptions) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: %s backups <world-path> <list|pop|discard|clear> [region-file]", programName)
	}
	worldPath := args[0]
	subcommand := args[1]
	regionName := ""
	if len(args) > 2 {
		regionName = args[2]
		if _, err := mcarecover.ParseRegionFileName(regionName); err != nil {
			return err
		}
	}

	opts, _, err := loadOptions(worldPath, options)
	if err != nil {
		return err
	}
	quiet := options.GetBool("quiet")
	regionDir := mcarecover.RegionDir(worldPath)

	switch subcommand {
	case "list":
		return backupsList(regionDir, regionName, opts.Format, quiet)
	case "pop", "discard", "clear":
		if opts.DryRun {
			return backupsDryRun(regionDir, regionName, subcommand)
		}
		lock, err := mcarecover.LockRegionDir(regionDir)
		if err != nil {
			return err
		}
		defer lock.Unlock()
		return backupsModify(regionDir, regionName, subcommand, quiet)
	default:
		return fmt.Errorf("unknown backups subcommand: %s", subcommand)
	}
}

func backupsList(regionDir, regionName, format string, quiet bool) error {
	backups, err := mcarecover.ListBackups(regionDir, regionName)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if format == mcarecover.FormatJSON {
		data, err := json.MarshalIndent(backups, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Printf("%s\n", data)
		return nil
	}

	if len(backups) == 0 {
		if !quiet {
			fmt.Printf("No backups found\n")
		}
		return nil
	}

	fmt.Printf("Backup stack (%d entries):\n\n", len(backups))
	fmt.Printf(" %-20s %-19s %-16s %8s %6s\n", "ID", "Timestamp", "Region", "Size", "Slots")
	fmt.Printf(" %-20s %-19s %-16s %8s %6s\n", strings.Repeat("-", 20), strings.Repeat("-", 19),
		strings.Repeat("-", 16), strings.Repeat("-", 8), strings.Repeat("-", 6))
	for i, backup := range backups {
		marker := " "
		if i == 0 {
			marker = "*"
		}
		fmt.Printf("%s%-20s %-19s %-16s %8s %6d\n",
			marker,
			backup.ID.String(),
			backup.Timestamp.Format("2006-01-02 15:04:05"),
			filepath.Base(backup.RegionFile),
			humanize.IBytes(uint64(backup.Size)),
			backup.SlotsChanged)
	}
	fmt.Printf("\n* = top of stack (most recent)\n")
	return nil
}

func backupsDryRun(regionDir, regionName, subcommand string) error {
	backups, err := mcarecover.ListBackups(regionDir, regionName)
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		if subcommand == "clear" {
			fmt.Printf("No backups to clear\n")
			return nil
		}
		return mcarecover.ErrNoBackups
	}

	latest := backups[0]
	switch subcommand {
	case "pop":
		fmt.Printf("Would restore backup %s of %s from %s\n",
			latest.ID, filepath.Base(latest.RegionFile), latest.Timestamp.Format("2006-01-02 15:04:05"))
	case "discard":
		fmt.Printf("Would discard backup %s of %s\n", latest.ID, filepath.Base(latest.RegionFile))
	case "clear":
		fmt.Printf("Would clear %d backup(s)\n", len(backups))
	}
	return nil
}

func backupsModify(regionDir, regionName, subcommand string, quiet bool) error {
	switch subcommand {
	case "pop":
		restored, err := mcarecover.PopBackup(regionDir, regionName)
		if err != nil {
			if restored != nil {
				return fmt.Errorf("backup restored but failed to clean up backup files: %w", err)
			}
			return err
		}
		if !quiet {
			fmt.Printf("Restored backup %s of %s from %s\n",
				restored.ID, filepath.Base(restored.RegionFile), restored.Timestamp.Format("2006-01-02 15:04:05"))
		}

	case "discard":
		discarded, err := mcarecover.DiscardBackup(regionDir, regionName)
		if err != nil {
			if errors.Is(err, mcarecover.ErrNoBackups) {
				return fmt.Errorf("no backups available to discard")
			}
			return err
		}
		if !quiet {
			fmt.Printf("Discarded backup %s of %s\n", discarded.ID, filepath.Base(discarded.RegionFile))
		}

	case "clear":
		removed, err := mcarecover.ClearBackups(regionDir, regionName)
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Printf("Cleared %d backup(s)\n", removed)
		}
	}
	return nil
}
