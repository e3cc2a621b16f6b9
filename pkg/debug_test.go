package mcarecover

import (
	"bytes"
	"strings"
	"testing"
)

func TestSetDebugFlags(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedScan    bool
		expectedResolve bool
		expectedHeader  bool
	}{
		{"empty string", "", false, false, false},
		{"single option", "scan", true, false, false},
		{"multiple options", "scan,resolve,header", true, true, true},
		{"options with values", "scan:true,resolve:false,header:1", true, false, true},
		{"whitespace handling", " scan , header ", true, false, true},
		{"case insensitive", "Scan,RESOLVE", true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetDebugFlags(tt.input)
			defer SetDebugFlags("")

			if IsDebugEnabled("scan") != tt.expectedScan {
				t.Errorf("scan: expected %v, got %v", tt.expectedScan, IsDebugEnabled("scan"))
			}
			if IsDebugEnabled("resolve") != tt.expectedResolve {
				t.Errorf("resolve: expected %v, got %v", tt.expectedResolve, IsDebugEnabled("resolve"))
			}
			if IsDebugEnabled("header") != tt.expectedHeader {
				t.Errorf("header: expected %v, got %v", tt.expectedHeader, IsDebugEnabled("header"))
			}
		})
	}
}

func TestDebugFlagValueParsing(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"flag:true", true},
		{"flag:yes", true},
		{"flag:on", true},
		{"flag:false", false},
		{"flag:FALSE", false},
		{"flag:0", false},
		{"flag:no", false},
		{"flag:off", false},
		{"flag:unknown", true}, // Default to true for unknown values
		{"flag", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			SetDebugFlags(tt.input)
			defer SetDebugFlags("")
			if result := IsDebugEnabled("flag"); result != tt.expected {
				t.Errorf("SetDebugFlags(%q) then IsDebugEnabled(flag) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestVerboseLogLevels(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(nil)
	defer SetVerboseLevel(0)

	SetVerboseLevel(1)
	VerboseLog(1, "shown %d", 1)
	VerboseLog(2, "hidden")

	output := buf.String()
	if !strings.Contains(output, "[VERBOSE-1] shown 1\n") {
		t.Errorf("Expected level 1 message, got %q", output)
	}
	if strings.Contains(output, "hidden") {
		t.Errorf("Level 2 message printed at level 1: %q", output)
	}
}

func TestVerboseEnterTrace(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(nil)
	defer SetVerboseLevel(0)

	SetVerboseLevel(2)
	VerboseEnter()()
	if buf.Len() != 0 {
		t.Errorf("Expected no trace below level 3, got %q", buf.String())
	}

	SetVerboseLevel(3)
	DiscoverEntries(nil, nil)
	output := buf.String()
	if !strings.Contains(output, "Entering function: DiscoverEntries") ||
		!strings.Contains(output, "Exiting function: DiscoverEntries") {
		t.Errorf("Expected entry and exit trace, got %q", output)
	}
}

func TestHeaderDebugFlagLogsWrites(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(nil)
	defer SetVerboseLevel(0)
	defer SetDebugFlags("")

	SetVerboseLevel(3)
	SetDebugFlags("header")

	data := make([]byte, HeaderTablesSize)
	if err := SetHeaderEntry(data, 7, 12, 2); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "slot 7 set to offset=12 size=2") {
		t.Errorf("Expected header write trace, got %q", buf.String())
	}
}
