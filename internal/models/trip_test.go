package models

import "testing"

func TestTrip_DirtyState(t *testing.T) {
	tests := []struct {
		name         string
		trip         Trip
		pending      bool
		needsRemoval bool
	}{
		{"settled", Trip{}, false, false},
		{"new", Trip{IsNew: true}, true, false},
		{"modified after replay", Trip{IsModified: true}, true, true},
		{"modified before first replay", Trip{IsNew: true, IsModified: true}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.trip.Pending(); got != tt.pending {
				t.Fatalf("Pending() = %v, want %v", got, tt.pending)
			}
			if got := tt.trip.NeedsRemoval(); got != tt.needsRemoval {
				t.Fatalf("NeedsRemoval() = %v, want %v", got, tt.needsRemoval)
			}
		})
	}
}

func TestLoginMergeResult_Dropped(t *testing.T) {
	r := LoginMergeResult{DroppedUsernames: 2, DroppedPasswords: 1}
	if r.Dropped() != 3 {
		t.Fatalf("Dropped() = %d, want 3", r.Dropped())
	}
}
