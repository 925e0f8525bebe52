package tuning

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_ShippedMatchesDefaults(t *testing.T) {
	got, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, Defaults()) {
		t.Fatalf("configs/tuning.yaml drifted from Defaults():\n%+v\n%+v", got, Defaults())
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("max_weeks: 104\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MaxWeeks != 104 {
		t.Fatalf("max_weeks=%d", got.MaxWeeks)
	}
	if got.BaseLivingCost != 150 || got.Triggers.MaxChance != 0.9 {
		t.Fatalf("defaults lost: %+v", got)
	}
}

func TestLoad_RejectsBadChance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("triggers:\n  max_chance: 1.5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLookups(t *testing.T) {
	tu := Defaults()
	if _, err := tu.Difficulty("nightmare"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("difficulty: %v", err)
	}
	if s, err := tu.Studio("pro"); err != nil || s.ProductionValue != 20 {
		t.Fatalf("studio: %+v %v", s, err)
	}
	if ts, err := tu.Tour("national"); err != nil || ts.Weeks != 4 {
		t.Fatalf("tour: %+v %v", ts, err)
	}
	if _, err := tu.Tour("moon"); !errors.Is(err, ErrUnknownTour) {
		t.Fatalf("tour: %v", err)
	}
}
