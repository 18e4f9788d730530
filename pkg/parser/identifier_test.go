package parser

import "testing"

func TestStripIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       string
		wantPlayer bool
	}{
		{"player", "P[12345@67890 Alice@alice_handle]", "Alice@alice_handle", true},
		{"player short ids", "P[1@1 Alice@Alice]", "Alice@Alice", true},
		{"player with spaced name", "P[1@1 Jean Luc@picard]", "Jean Luc@picard", true},
		{"non-player", "C[2 Borg_Cube]", "Borg_Cube", false},
		{"non-player long id", "C[987654 Space_Borg_Tactical_Cube]", "Space_Borg_Tactical_Cube", false},
		{"pet", "C[55 Pet_Drone]", "Pet_Drone", false},
		{"plain string", "Cube", "Cube", false},
		{"empty", "", "", false},
		{"star", "*", "*", false},
		{"unterminated player", "P[1@1 Alice@Alice", "P[1@1 Alice@Alice", false},
		{"non-numeric npc id", "C[x Borg_Cube]", "C[x Borg_Cube]", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, isPlayer := StripIdentifier(tt.raw)
			if got != tt.want {
				t.Errorf("StripIdentifier(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if isPlayer != tt.wantPlayer {
				t.Errorf("StripIdentifier(%q) isPlayer = %v, want %v", tt.raw, isPlayer, tt.wantPlayer)
			}
		})
	}
}
