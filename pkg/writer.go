package mcarecover

// ApplyDecisions writes every recovered entry into the header table of data.
// It returns the number of slots changed. Any round-trip mismatch aborts immediately
// and the caller must discard data.
func ApplyDecisions(data []byte, decisions []SlotDecision) (int, error) {
	defer VerboseEnter()()

	changed := 0
	for _, decision := range decisions {
		if !decision.NeedsWrite() {
			continue
		}
		chosen := decision.Chosen
		if err := SetHeaderEntry(data, decision.Slot, chosen.OffsetSectors, chosen.SizeSectors); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
