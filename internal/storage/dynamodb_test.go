package storage

import (
	"testing"

	"github.com/vodbackup/uploader/pkg/models"
)

func TestKeyConstruction(t *testing.T) {
	if got := videoPK(42); got != "VIDEO#42" {
		t.Errorf("videoPK(42) = %q, want VIDEO#42", got)
	}
	if got := userPK(7); got != "USER#7" {
		t.Errorf("userPK(7) = %q, want USER#7", got)
	}
	if got := statusKey(models.StatusSplit); got != "STATUS#split" {
		t.Errorf("statusKey(split) = %q, want STATUS#split", got)
	}
}

func TestPartSKOrdering(t *testing.T) {
	// Part sort keys must be zero-padded so lexicographic order matches
	// numeric part order.
	tests := []struct {
		part int
		want string
	}{
		{1, "PART#00001"},
		{2, "PART#00002"},
		{10, "PART#00010"},
		{100, "PART#00100"},
	}

	prev := ""
	for _, tt := range tests {
		got := partSK(tt.part)
		if got != tt.want {
			t.Errorf("partSK(%d) = %q, want %q", tt.part, got, tt.want)
		}
		if prev != "" && got <= prev {
			t.Errorf("partSK(%d) = %q does not sort after %q", tt.part, got, prev)
		}
		prev = got
	}
}
