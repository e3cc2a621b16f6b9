package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OptionType defines the type of value an option expects
type OptionType int

const (
	OptionTypeBool OptionType = iota
	OptionTypeString
	OptionTypeInt
	OptionTypeList // string option that may be given more than once
)

// OptionDef defines a command-line option
type OptionDef struct {
	Long        string
	Short       string
	Type        OptionType
	Description string
	Default     string
}

// ParsedOptions holds the parsed command-line options
type ParsedOptions struct {
	values        map[string]string
	lists         map[string][]string
	args          []string
	defs          map[string]*OptionDef
	order         []string          // definition order, used by ShowUsage
	shortMap      map[string]string // short name -> long name
	explicitlySet map[string]bool
}

// NewParsedOptions creates a new options parser
func NewParsedOptions() *ParsedOptions {
	return &ParsedOptions{
		values:        make(map[string]string),
		lists:         make(map[string][]string),
		args:          []string{},
		defs:          make(map[string]*OptionDef),
		shortMap:      make(map[string]string),
		explicitlySet: make(map[string]bool),
	}
}

// DefineOption defines a command-line option
func (p *ParsedOptions) DefineOption(long, short string, optType OptionType, defaultValue, description string) {
	def := &OptionDef{
		Long:        long,
		Short:       short,
		Type:        optType,
		Description: description,
		Default:     defaultValue,
	}
	if _, exists := p.defs[long]; !exists {
		p.order = append(p.order, long)
	}
	p.defs[long] = def
	if short != "" {
		p.shortMap[short] = long
	}

	if defaultValue != "" && optType != OptionTypeList {
		p.values[long] = defaultValue
	}
}

// Parse parses command-line arguments. Everything after a bare "--" is positional.
func (p *ParsedOptions) Parse(args []string) error {
	consumed := make([]bool, len(args))

	for i := 0; i < len(args); i++ {
		if consumed[i] {
			continue
		}

		arg := args[i]
		if arg == "--" {
			consumed[i] = true
			for j := i + 1; j < len(args); j++ {
				if !consumed[j] {
					consumed[j] = true
					p.args = append(p.args, args[j])
				}
			}
			break
		}

		if strings.HasPrefix(arg, "--") {
			consumed[i] = true
			if err := p.parseLongOption(arg); err != nil {
				return err
			}
		} else if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			consumed[i] = true
			if err := p.parseShortOptions(arg, args, i, consumed); err != nil {
				return err
			}
		}
	}

	var positional []string
	for i := 0; i < len(args); i++ {
		if !consumed[i] {
			positional = append(positional, args[i])
		}
	}
	// Arguments after "--" were appended first but belong at the end
	p.args = append(positional, p.args...)

	return nil
}

// parseLongOption parses --option or --option=value
func (p *ParsedOptions) parseLongOption(arg string) error {
	optName := strings.TrimPrefix(arg, "--")
	var optValue string
	hasValue := false

	if equalPos := strings.Index(optName, "="); equalPos != -1 {
		optValue = optName[equalPos+1:]
		optName = optName[:equalPos]
		hasValue = true
	}

	def, exists := p.defs[optName]
	if !exists {
		return fmt.Errorf("unknown option: --%s", optName)
	}

	switch def.Type {
	case OptionTypeBool:
		if !hasValue {
			return p.set(optName, "true")
		}
		switch strings.ToLower(optValue) {
		case "true", "1", "yes", "on":
			return p.set(optName, "true")
		case "false", "0", "no", "off":
			return p.set(optName, "false")
		default:
			return fmt.Errorf("invalid boolean value for --%s: %s", optName, optValue)
		}

	case OptionTypeString, OptionTypeInt, OptionTypeList:
		if !hasValue || optValue == "" {
			return fmt.Errorf("option --%s requires a value (use --%s=value)", optName, optName)
		}
		if def.Type == OptionTypeInt {
			if _, err := strconv.Atoi(optValue); err != nil {
				return fmt.Errorf("invalid integer value for --%s: %s", optName, optValue)
			}
		}
		return p.set(optName, optValue)
	}

	return nil
}

// parseShortOptions parses -o or grouped -abc. Repeating an int option (-vvv) counts.
func (p *ParsedOptions) parseShortOptions(arg string, args []string, idx int, consumed []bool) error {
	shortOpts := strings.TrimPrefix(arg, "-")

	var seen []string
	optCounts := make(map[string]int)
	for _, r := range shortOpts {
		short := string(r)
		if _, exists := p.shortMap[short]; !exists {
			return fmt.Errorf("unknown option: -%s", short)
		}
		if optCounts[short] == 0 {
			seen = append(seen, short)
		}
		optCounts[short]++
	}

	// Process in command-line order so value-taking options consume arguments predictably
	for _, short := range seen {
		count := optCounts[short]
		longOpt := p.shortMap[short]
		def := p.defs[longOpt]

		switch def.Type {
		case OptionTypeBool:
			p.set(longOpt, "true")

		case OptionTypeInt:
			if count > 1 {
				p.set(longOpt, strconv.Itoa(count))
			} else if nextArg := findNextAvailableArg(args, idx, consumed, isInteger); nextArg != "" {
				p.set(longOpt, nextArg)
			} else {
				p.set(longOpt, "1")
			}

		case OptionTypeString, OptionTypeList:
			nextArg := findNextAvailableArg(args, idx, consumed, nil)
			if nextArg == "" {
				return fmt.Errorf("option -%s requires a value", short)
			}
			p.set(longOpt, nextArg)
		}
	}

	return nil
}

func (p *ParsedOptions) set(option, value string) error {
	if p.defs[option].Type == OptionTypeList {
		p.lists[option] = append(p.lists[option], value)
	} else {
		p.values[option] = value
	}
	p.explicitlySet[option] = true
	return nil
}

func isInteger(value string) bool {
	_, err := strconv.Atoi(value)
	return err == nil
}

// findNextAvailableArg finds the next unconsumed non-option argument accepted by
// match (any when nil) and marks it consumed
func findNextAvailableArg(args []string, startIdx int, consumed []bool, match func(string) bool) string {
	for i := startIdx + 1; i < len(args); i++ {
		if consumed[i] || strings.HasPrefix(args[i], "-") {
			continue
		}
		if match != nil && !match(args[i]) {
			continue
		}
		consumed[i] = true
		return args[i]
	}
	return ""
}

// GetString returns a string option value
func (p *ParsedOptions) GetString(option string) string {
	return p.values[option]
}

// GetInt returns an integer option value
func (p *ParsedOptions) GetInt(option string) int {
	if val, exists := p.values[option]; exists {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return 0
}

// GetBool returns a boolean option value
func (p *ParsedOptions) GetBool(option string) bool {
	return p.values[option] == "true"
}

// GetList returns every value given for a repeatable option
func (p *ParsedOptions) GetList(option string) []string {
	return p.lists[option]
}

// IsSet returns true if an option was explicitly set
func (p *ParsedOptions) IsSet(option string) bool {
	return p.explicitlySet[option]
}

// GetArgs returns non-option arguments
func (p *ParsedOptions) GetArgs() []string {
	return p.args
}

// ShowUsage writes the option table in definition order
func (p *ParsedOptions) ShowUsage(w io.Writer) {
	for _, long := range p.order {
		def := p.defs[long]

		shortOpt := "    "
		if def.Short != "" {
			shortOpt = fmt.Sprintf("-%s, ", def.Short)
		}

		var valueDesc string
		switch def.Type {
		case OptionTypeString, OptionTypeList:
			valueDesc = "=VALUE"
		case OptionTypeInt:
			valueDesc = "=N"
		}

		flag := "--" + def.Long + valueDesc
		fmt.Fprintf(w, "  %s%-26s %s\n", shortOpt, flag, def.Description)
	}
}
