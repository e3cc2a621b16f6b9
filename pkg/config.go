package mcarecover

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/kardianos/osext"
)

// Config represents the mcarecover configuration file
type Config struct {
	configPath string
	ini        *ini.File
}

// RecoveryConfig represents the [recovery] section
type RecoveryConfig struct {
	DuplicateBehaviour string // "", take_current or take_untracked
	Extension          string // Region file suffix (default: mca)
	Backup             bool   // Save originals before rewriting (default: true)
	DryRun             bool   // Report without writing (default: false)
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // human or json
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // 0=quiet, 1=basic, 2=detailed, 3=trace
	Debug string // comma-separated debug flags
}

// AllConfig represents all configuration options
type AllConfig struct {
	Recovery *RecoveryConfig
	Output   *OutputConfig
	Verbose  *VerboseConfig
}

// DefaultConfigPaths returns the candidate config files in lookup order:
// an explicit path, the world directory, then the directory of the executable.
func DefaultConfigPaths(explicit, worldPath string) []string {
	if explicit != "" {
		return []string{explicit}
	}

	var paths []string
	if worldPath != "" {
		paths = append(paths, filepath.Join(worldPath, ConfigFileName))
	}
	if execDir, err := osext.ExecutableFolder(); err == nil && execDir != "" {
		paths = append(paths, filepath.Join(execDir, ConfigFileName))
	}
	return paths
}

// FindConfig loads the first existing config file from DefaultConfigPaths.
// An explicit path that does not exist is an error; otherwise defaults are used.
func FindConfig(explicit, worldPath string) (*Config, error) {
	for _, path := range DefaultConfigPaths(explicit, worldPath) {
		if _, err := os.Stat(path); err == nil {
			return LoadConfig(path)
		}
	}
	if explicit != "" {
		return nil, fmt.Errorf("config file not found: %s", explicit)
	}
	return LoadConfig("")
}

// LoadConfig loads configuration from path. A missing file (or empty path) yields
// an empty config where every getter returns its default.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{configPath: path}

	if path == "" {
		cfg.ini = ini.Empty()
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = iniFile

	VerboseLog(2, "Loaded config %s", path)
	return cfg, nil
}

// Path returns the file the config was loaded from, empty for built-in defaults
func (c *Config) Path() string {
	return c.configPath
}

// SetDefaults writes every default key, creating the sections as needed
func (c *Config) SetDefaults() error {
	defaults := []struct {
		section string
		key     string
		value   string
	}{
		{"recovery", "duplicate_behaviour", ""},
		{"recovery", "extension", DefaultExtension},
		{"recovery", "backup", "true"},
		{"recovery", "dry_run", "false"},
		{"output", "format", FormatHuman},
		{"verbose", "level", "0"},
		{"verbose", "debug", ""},
	}

	for _, d := range defaults {
		section, err := c.ini.NewSection(d.section)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", d.section, err)
		}
		if _, err := section.NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}
	return nil
}

// GetRecoveryConfig returns the recovery configuration
func (c *Config) GetRecoveryConfig() *RecoveryConfig {
	recoveryConfig := &RecoveryConfig{
		DuplicateBehaviour: "",
		Extension:          DefaultExtension,
		Backup:             true,
		DryRun:             false,
	}

	if c.ini.HasSection("recovery") {
		section := c.ini.Section("recovery")
		if section.HasKey("duplicate_behaviour") {
			recoveryConfig.DuplicateBehaviour = section.Key("duplicate_behaviour").String()
		}
		if section.HasKey("extension") {
			if ext := strings.TrimPrefix(section.Key("extension").String(), "."); ext != "" {
				recoveryConfig.Extension = ext
			}
		}
		if section.HasKey("backup") {
			if backup, err := section.Key("backup").Bool(); err == nil {
				recoveryConfig.Backup = backup
			}
		}
		if section.HasKey("dry_run") {
			if dryRun, err := section.Key("dry_run").Bool(); err == nil {
				recoveryConfig.DryRun = dryRun
			}
		}
	}

	return recoveryConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Format: FormatHuman,
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("format") {
			outputConfig.Format = section.Key("format").String()
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Recovery: c.GetRecoveryConfig(),
		Output:   c.GetOutputConfig(),
		Verbose:  c.GetVerboseConfig(),
	}
}

// Save writes the configuration to the file it was loaded from
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("config has no file path")
	}
	return c.ini.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path and remembers it
func (c *Config) SaveTo(path string) error {
	c.configPath = path
	return c.Save()
}

// ApplyOverrides applies command-line overrides such as "duplicate_behaviour:take_current"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch key {
		case "duplicate_behaviour", "extension", "backup", "dry_run":
			c.ini.Section("recovery").Key(key).SetValue(value)
		case "format":
			c.ini.Section("output").Key("format").SetValue(value)
		case "level", "debug":
			c.ini.Section("verbose").Key(key).SetValue(value)
		default:
			return fmt.Errorf("unsupported override key '%s' (supported: duplicate_behaviour, extension, backup, dry_run, format, level, debug)", key)
		}
	}

	return nil
}

// Validate checks every value the run depends on
func (c *Config) Validate() error {
	all := c.GetAllConfig()
	if _, err := ParseDuplicateBehaviour(all.Recovery.DuplicateBehaviour); err != nil {
		return err
	}
	if err := ValidateOutputFormat(all.Output.Format); err != nil {
		return err
	}
	return ValidateVerboseLevel(all.Verbose.Level)
}

// Options builds run options from the configuration
func (c *Config) Options() (Options, error) {
	if err := c.Validate(); err != nil {
		return Options{}, err
	}
	all := c.GetAllConfig()
	behaviour, _ := ParseDuplicateBehaviour(all.Recovery.DuplicateBehaviour)

	opts := DefaultOptions()
	opts.Behaviour = behaviour
	opts.Extension = all.Recovery.Extension
	opts.Backup = all.Recovery.Backup
	opts.DryRun = all.Recovery.DryRun
	opts.Format = strings.ToLower(all.Output.Format)
	return opts, nil
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: human, json)", format)
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}
