package suggest

import "testing"

func TestFor_ClosestMatch(t *testing.T) {
	got := For("Base.Logging", []string{"Base.Logging", "Base.Security", "Extras.Cache"})
	if got != "Base.Logging" {
		t.Errorf("expected exact candidate to win, got %q", got)
	}
}

func TestFor_Typo(t *testing.T) {
	got := For("Base.Loging", []string{"Base.Logging", "Extras.Cache"})
	if got != "Base.Logging" {
		t.Errorf("expected typo to resolve to Base.Logging, got %q", got)
	}
}

func TestFor_NoCandidates(t *testing.T) {
	if got := For("Base.Logging", nil); got != "" {
		t.Errorf("expected empty suggestion with no candidates, got %q", got)
	}
}

func TestFor_NothingCloseEnough(t *testing.T) {
	got := For("Zzzzzzzzzzz", []string{"Abc", "Def"})
	if got != "" {
		t.Errorf("expected no suggestion for unrelated names, got %q", got)
	}
}
