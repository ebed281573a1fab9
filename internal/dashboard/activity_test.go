package dashboard

import "testing"

func TestActivityLog_Bounded(t *testing.T) {
	l := NewActivityLog(3)
	for _, line := range []string{"a", "b", "c", "d", "e"} {
		l.Append(LogEntry{Kind: KindInfo, Line: line})
	}

	entries := l.Entries()
	if l.Len() != 3 || len(entries) != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	for i, want := range []string{"c", "d", "e"} {
		if entries[i].Line != want {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Line, want)
		}
	}

	if NewActivityLog(0).max != defaultActivityLogSize {
		t.Error("NewActivityLog(0) did not apply the default size")
	}
}
