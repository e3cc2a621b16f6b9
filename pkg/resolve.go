package mcarecover

import (
	"fmt"
	"strings"
)

// DuplicateBehaviour decides what happens when a slot has both a current entry and
// untracked entries. It is fixed for a whole run.
type DuplicateBehaviour int

const (
	BehaviourUnset DuplicateBehaviour = iota // ask per slot
	TakeCurrent                              // keep the chunk the header points at
	TakeUntracked                            // take an untracked chunk, choosing if there are several
)

func (b DuplicateBehaviour) String() string {
	switch b {
	case TakeCurrent:
		return "take_current"
	case TakeUntracked:
		return "take_untracked"
	default:
		return "unset"
	}
}

// ParseDuplicateBehaviour accepts take_current, take-current, TakeCurrent, current
// (and the untracked equivalents) case-insensitively. Empty means unset.
func ParseDuplicateBehaviour(s string) (DuplicateBehaviour, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("_", "", "-", "").Replace(normalized)
	switch normalized {
	case "", "ask", "unset":
		return BehaviourUnset, nil
	case "takecurrent", "current":
		return TakeCurrent, nil
	case "takeuntracked", "untracked":
		return TakeUntracked, nil
	default:
		return BehaviourUnset, fmt.Errorf("%w: %q (supported: take_current, take_untracked)", ErrInvalidBehaviour, s)
	}
}

// DuplicatePrompt describes an ambiguous slot to the Asker
type DuplicatePrompt struct {
	Slot      int
	ChunkX    int32
	ChunkZ    int32
	Current   int
	Untracked int
}

// Asker resolves ambiguity the policy alone cannot settle. Implementations may block
// on user input; the engine itself never does I/O.
type Asker interface {
	// AskBehaviour picks TakeCurrent or TakeUntracked for one slot
	AskBehaviour(prompt DuplicatePrompt) (DuplicateBehaviour, error)
	// AskSelection returns a 1-based index into the slot's untracked entries
	AskSelection(prompt DuplicatePrompt, count int) (int, error)
}

// ActionKind classifies the outcome for one slot
type ActionKind string

const (
	ActionNone        ActionKind = "no-action"
	ActionKeptCurrent ActionKind = "kept-current"
	ActionRecovered   ActionKind = "recovered"
)

// SlotDecision is the engine's output for one slot with candidates
type SlotDecision struct {
	Slot      int
	ChunkX    int32
	ChunkZ    int32
	Current   int
	Untracked int
	Kind      ActionKind
	Chosen    *RegionEntry // nil unless Kind is ActionRecovered
}

// NeedsWrite reports whether the decision changes the header
func (d SlotDecision) NeedsWrite() bool {
	return d.Kind == ActionRecovered && d.Chosen != nil
}

// ResolveSlot decides which discovered entry, if any, should become the header entry
func ResolveSlot(region RegionPosition, slot int, entries []RegionEntry, behaviour DuplicateBehaviour, asker Asker) (SlotDecision, error) {
	chunkX, chunkZ := AbsolutePosition(region, slot)
	decision := SlotDecision{Slot: slot, ChunkX: chunkX, ChunkZ: chunkZ, Kind: ActionNone}

	var current []int
	var untracked []int
	for i := range entries {
		if entries[i].IsCurrent {
			current = append(current, i)
		} else {
			untracked = append(untracked, i)
		}
	}
	decision.Current = len(current)
	decision.Untracked = len(untracked)

	if len(current) > 1 {
		return decision, invariantf(slot, "%d entries match the header location", len(current))
	}
	if len(current)+len(untracked) != len(entries) {
		return decision, invariantf(slot, "entry is neither current nor untracked")
	}

	switch {
	case len(entries) == 0:
		return decision, nil

	case len(untracked) == 0:
		// Header already points at the only decodable copy
		decision.Kind = ActionNone
		return decision, nil

	case len(current) == 0 && len(untracked) == 1:
		// Header points at nothing decodable, one copy exists
		decision.Kind = ActionRecovered
		decision.Chosen = &entries[untracked[0]]
		return decision, nil

	case len(current) == 0:
		return chooseUntracked(decision, entries, untracked, asker)
	}

	// Both a current entry and untracked entries: consult the policy
	prompt := decision.prompt()
	effective := behaviour
	if effective == BehaviourUnset {
		if asker == nil {
			return decision, fmt.Errorf("slot %d: %w: no policy and nothing to ask", slot, ErrInvalidBehaviour)
		}
		answer, err := asker.AskBehaviour(prompt)
		if err != nil {
			return decision, fmt.Errorf("chunk (%d, %d): %w", chunkX, chunkZ, err)
		}
		if answer != TakeCurrent && answer != TakeUntracked {
			return decision, fmt.Errorf("chunk (%d, %d): %w: asker returned %d", chunkX, chunkZ, ErrInvalidBehaviour, answer)
		}
		effective = answer
	}

	if IsDebugEnabled("resolve") {
		VerboseLog(2, "slot %d: %d current, %d untracked, behaviour %s", slot, len(current), len(untracked), effective)
	}

	if effective == TakeCurrent {
		decision.Kind = ActionKeptCurrent
		return decision, nil
	}
	if len(untracked) == 1 {
		decision.Kind = ActionRecovered
		decision.Chosen = &entries[untracked[0]]
		return decision, nil
	}
	return chooseUntracked(decision, entries, untracked, asker)
}

// chooseUntracked asks for an ordinal among several untracked entries, in discovery order
func chooseUntracked(decision SlotDecision, entries []RegionEntry, untracked []int, asker Asker) (SlotDecision, error) {
	if asker == nil {
		return decision, fmt.Errorf("slot %d: %w: %d untracked entries and nothing to ask",
			decision.Slot, ErrInvalidSelection, len(untracked))
	}

	choice, err := asker.AskSelection(decision.prompt(), len(untracked))
	if err != nil {
		return decision, fmt.Errorf("chunk (%d, %d): %w", decision.ChunkX, decision.ChunkZ, err)
	}
	if choice < 1 || choice > len(untracked) {
		return decision, &InvariantError{
			Slot:   decision.Slot,
			Reason: fmt.Sprintf("selection %d outside 1..%d", choice, len(untracked)),
			Err:    ErrInvalidSelection,
		}
	}

	decision.Kind = ActionRecovered
	decision.Chosen = &entries[untracked[choice-1]]
	return decision, nil
}

func (d SlotDecision) prompt() DuplicatePrompt {
	return DuplicatePrompt{
		Slot:      d.Slot,
		ChunkX:    d.ChunkX,
		ChunkZ:    d.ChunkZ,
		Current:   d.Current,
		Untracked: d.Untracked,
	}
}

// Resolve runs ResolveSlot over every slot that has candidates, in slot order.
// The first error stops resolution; no decisions are returned with it.
func Resolve(region RegionPosition, discovery *Discovery, behaviour DuplicateBehaviour, asker Asker) ([]SlotDecision, error) {
	defer VerboseEnter()()

	var decisions []SlotDecision
	for slot := 0; slot < HeaderSlots; slot++ {
		entries := discovery.Slots[slot]
		if len(entries) == 0 {
			continue
		}
		decision, err := ResolveSlot(region, slot, entries, behaviour, asker)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, nil
}

// ScriptedAsker answers prompts from fixed lists, for tests and unattended runs.
// Once a list is exhausted the last answer repeats; an empty list is an error.
type ScriptedAsker struct {
	Behaviours []DuplicateBehaviour
	Selections []int

	behaviourCalls int
	selectionCalls int
}

func (s *ScriptedAsker) AskBehaviour(prompt DuplicatePrompt) (DuplicateBehaviour, error) {
	if len(s.Behaviours) == 0 {
		return BehaviourUnset, fmt.Errorf("%w: no scripted behaviour for chunk (%d, %d)", ErrInvalidBehaviour, prompt.ChunkX, prompt.ChunkZ)
	}
	idx := s.behaviourCalls
	if idx >= len(s.Behaviours) {
		idx = len(s.Behaviours) - 1
	}
	s.behaviourCalls++
	return s.Behaviours[idx], nil
}

func (s *ScriptedAsker) AskSelection(prompt DuplicatePrompt, count int) (int, error) {
	if len(s.Selections) == 0 {
		return 0, fmt.Errorf("%w: no scripted selection for chunk (%d, %d)", ErrInvalidSelection, prompt.ChunkX, prompt.ChunkZ)
	}
	idx := s.selectionCalls
	if idx >= len(s.Selections) {
		idx = len(s.Selections) - 1
	}
	s.selectionCalls++
	return s.Selections[idx], nil
}

// Calls returns how many times each question was asked
func (s *ScriptedAsker) Calls() (behaviours, selections int) {
	return s.behaviourCalls, s.selectionCalls
}
