package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	mcarecover "github.com/mattkeenan/mcarecover/pkg"
)

// terminalAsker answers duplicate prompts from a line-oriented reader, normally stdin.
// Invalid answers are reported and asked again; end of input is an error.
type terminalAsker struct {
	in  *bufio.Scanner
	out io.Writer
}

func newTerminalAsker(in io.Reader, out io.Writer) *terminalAsker {
	return &terminalAsker{in: bufio.NewScanner(in), out: out}
}

func (a *terminalAsker) AskBehaviour(prompt mcarecover.DuplicatePrompt) (mcarecover.DuplicateBehaviour, error) {
	fmt.Fprintf(a.out, "Chunk (%d, %d) has %d known entries and %d unknown entries\n",
		prompt.ChunkX, prompt.ChunkZ, prompt.Current, prompt.Untracked)
	fmt.Fprintf(a.out, "Duplicate entries have been found, what would you like to do?\n")
	fmt.Fprintf(a.out, "    `TakeCurrent` - Take the current chunk\n")
	fmt.Fprintf(a.out, "    `TakeUntracked` - Take one of the untracked chunks (you can decide if there are multiple)\n")

	for {
		line, err := a.readLine()
		if err != nil {
			return mcarecover.BehaviourUnset, err
		}
		behaviour, err := mcarecover.ParseDuplicateBehaviour(line)
		if err == nil && behaviour != mcarecover.BehaviourUnset {
			return behaviour, nil
		}
		fmt.Fprintf(a.out, "Invalid value!\n")
	}
}

func (a *terminalAsker) AskSelection(prompt mcarecover.DuplicatePrompt, count int) (int, error) {
	fmt.Fprintf(a.out, "Chunk (%d, %d): which unknown entry should be chosen (1 to %d)?\n",
		prompt.ChunkX, prompt.ChunkZ, count)

	for {
		line, err := a.readLine()
		if err != nil {
			return 0, err
		}
		choice, err := strconv.Atoi(line)
		if err == nil && choice >= 1 && choice <= count {
			return choice, nil
		}
		fmt.Fprintf(a.out, "Invalid value!\n")
	}
}

func (a *terminalAsker) readLine() (string, error) {
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read answer: %w", err)
		}
		return "", fmt.Errorf("failed to read answer: %w", io.ErrUnexpectedEOF)
	}
	return strings.TrimSpace(a.in.Text()), nil
}
