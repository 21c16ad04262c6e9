package actor

import (
	"testing"
)

func TestSubject_SetStatusForwardOnly(t *testing.T) {
	s := &Subject{Name: "Sable", Status: StatusCaptured}

	if err := s.SetStatus(StatusEncountered); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if s.Status != StatusCaptured {
		t.Errorf("status moved backwards to %q", s.Status)
	}

	if err := s.SetStatus(StatusConverting); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if s.Status != StatusConverting {
		t.Errorf("status = %q, want %q", s.Status, StatusConverting)
	}

	if err := s.SetStatus(Status("enthralled")); err == nil {
		t.Error("SetStatus() with unknown status should return error")
	}
}

func TestSubject_AdjustClamps(t *testing.T) {
	tests := []struct {
		name  string
		start int
		delta int
		want  int
	}{
		{"within range", 10, 5, 15},
		{"above max", 95, 50, 100},
		{"below min", 3, -10, 0},
		{"huge negative", 50, -1 << 30, 0},
		{"huge positive", 50, 1 << 30, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Subject{Conditioning: tt.start, Affection: tt.start, Obedience: tt.start}
			if got := s.AdjustConditioning(tt.delta); got != tt.want {
				t.Errorf("AdjustConditioning() = %d, want %d", got, tt.want)
			}
			if got := s.AdjustAffection(tt.delta); got != tt.want {
				t.Errorf("AdjustAffection() = %d, want %d", got, tt.want)
			}
			if got := s.AdjustObedience(tt.delta); got != tt.want {
				t.Errorf("AdjustObedience() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSubject_Clone(t *testing.T) {
	s := &Subject{Name: "Sable", History: []string{"met"}, Details: map[string]string{"eyes": "grey"}}
	c := s.Clone()
	c.History[0] = "changed"
	c.Details["eyes"] = "blue"

	if s.History[0] != "met" || s.Details["eyes"] != "grey" {
		t.Error("Clone() shares state with original")
	}
}

func TestSubject_AppendHistory(t *testing.T) {
	s := &Subject{}
	s.AppendHistory("  ")
	s.AppendHistory("First night in the tower.")
	if len(s.History) != 1 {
		t.Fatalf("History length = %d, want 1", len(s.History))
	}
}

func TestInventory(t *testing.T) {
	inv := Inventory{}
	inv.Add("Lethe Draught", 2)
	inv.Add("", 1)
	inv.Add("Rope", 0)

	if !inv.Has("Lethe Draught", 2) {
		t.Error("Has(Lethe Draught, 2) = false, want true")
	}
	if inv.Has("Lethe Draught", 3) {
		t.Error("Has(Lethe Draught, 3) = true, want false")
	}
	if len(inv) != 1 {
		t.Errorf("inventory has %d entries, want 1", len(inv))
	}

	if err := inv.Remove("Lethe Draught", 3); err == nil {
		t.Error("Remove() beyond quantity should fail")
	}
	if inv["Lethe Draught"] != 2 {
		t.Errorf("failed Remove() mutated quantity to %d", inv["Lethe Draught"])
	}

	if err := inv.Remove("Lethe Draught", 2); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok := inv["Lethe Draught"]; ok {
		t.Error("entry should be deleted at zero")
	}
}
