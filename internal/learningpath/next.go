package learningpath

// Priority ranks a pending entry for ChooseAdaptiveNext. Remediation comes
// first, then stretch practice, then everything else.
func Priority(e Entry) int {
	switch {
	case e.Type == TypeReview || e.Metadata.Reason == ReasonRemediation:
		return 3
	case e.Type == TypePractice || e.Metadata.Reason == ReasonStretch:
		return 2
	default:
		return 1
	}
}

// ChooseAdaptiveNext returns the highest-priority pending entry, lowest
// position first among equals, or nil when nothing is pending.
func ChooseAdaptiveNext(entries []Entry) *Entry {
	var best *Entry
	for i := range entries {
		e := &entries[i]
		if !e.Pending() {
			continue
		}
		if best == nil {
			best = e
			continue
		}
		pe, pb := Priority(*e), Priority(*best)
		if pe > pb || (pe == pb && e.Position < best.Position) {
			best = e
		}
	}
	if best == nil {
		return nil
	}
	next := *best
	return &next
}

// PendingCount counts pending entries of the given type.
func PendingCount(entries []Entry, t EntryType) int {
	n := 0
	for _, e := range entries {
		if e.Type == t && e.Pending() {
			n++
		}
	}
	return n
}
