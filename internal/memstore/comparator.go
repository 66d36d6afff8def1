package memstore

import "strings"

// compare implements the latest-wins comparator: a strict total order over
// the tuple (updated_at, created_at, deleted, id, kind, content, tags,
// session_id, subagent_id). It returns -1, 0, or 1 as a < b, a == b, a > b.
//
// Two distinct entries are never equal under this order as long as at
// least one field differs; entries that are byte-for-byte identical across
// every compared field compare equal (0), which is the only case where
// apply_latest's strict-greater-than check rejects the incoming candidate.
func compare(a, b Entry) int {
	if c := compareInt64(a.UpdatedAt, b.UpdatedAt); c != 0 {
		return c
	}
	if c := compareInt64(a.CreatedAt, b.CreatedAt); c != 0 {
		return c
	}
	if c := compareBool(a.Deleted, b.Deleted); c != 0 {
		return c
	}
	if c := strings.Compare(a.ID, b.ID); c != 0 {
		return c
	}
	if c := strings.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if c := strings.Compare(a.Content, b.Content); c != 0 {
		return c
	}
	if c := compareTags(a.Tags, b.Tags); c != 0 {
		return c
	}
	if c := compareOptString(a.SessionID, b.SessionID); c != 0 {
		return c
	}
	return compareOptString(a.SubagentID, b.SubagentID)
}

// greater reports whether a strictly outranks b under the comparator.
func greater(a, b Entry) bool { return compare(a, b) > 0 }

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareBool orders false < true, matching the comparator's requirement
// that a live version only loses a tie-break to a tombstone, never the
// reverse.
func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func compareTags(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt64(int64(len(a)), int64(len(b)))
}

// compareOptString treats an absent optional string as sorting before any
// present value, including the empty string.
func compareOptString(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return strings.Compare(*a, *b)
	}
}
