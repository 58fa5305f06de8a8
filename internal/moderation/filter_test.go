package moderation

import "testing"

func TestCensor(t *testing.T) {
	f := NewWithWords([]string{"shit", "bad word", "gago"})
	cases := []struct {
		in, want string
		profane  bool
	}{
		{"What a lovely beach", "What a lovely beach", false},
		{"this is SHIT.", "this is ****.", true},
		{"$h1t happens", "**** happens", true},
		{"Shitake mushrooms", "Shitake mushrooms", false},
		{"ang gago mo, gago", "ang **** mo, ****", true},
		{"a bad word here", "a **** here", true},
		{"", "", false},
		{"Ñandú shit ñ", "Ñandú **** ñ", true},
	}
	for _, tc := range cases {
		got, profane := f.Censor(tc.in)
		if got != tc.want || profane != tc.profane {
			t.Errorf("Censor(%q) = %q,%v want %q,%v", tc.in, got, profane, tc.want, tc.profane)
		}
	}
}

func TestOverlappingPatternsPreferLongest(t *testing.T) {
	f := NewWithWords([]string{"fuck", "fucker", "motherfucker"})
	got, _ := f.Censor("you motherfucker")
	if got != "you ****" {
		t.Fatalf("got %q", got)
	}
}

func TestContainsAndDefaults(t *testing.T) {
	f := New("kalokohan")
	if f.Words() <= len(DefaultWords()) {
		t.Fatalf("extra word not added: %d", f.Words())
	}
	if !f.Contains("puro KALOKOHAN") {
		t.Fatal("extra word not matched")
	}
	if f.Contains("Masungi Georeserve is amazing") {
		t.Fatal("clean text flagged")
	}
	if !f.Contains("putangina") {
		t.Fatal("default word not matched")
	}
}

func TestEmptyFilter(t *testing.T) {
	f := NewWithWords(nil)
	if got, ok := f.Censor("anything"); ok || got != "anything" {
		t.Fatalf("got %q %v", got, ok)
	}
}

func TestPartialWordMatchDoesNotHideLaterWord(t *testing.T) {
	f := NewWithWords([]string{"a bad", "bad word"})
	got, profane := f.Censor("ha bad word")
	if !profane || got != "ha ****" {
		t.Fatalf("got %q %v, want %q", got, profane, "ha ****")
	}
}
