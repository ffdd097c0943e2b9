package intent

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want Intent
	}{
		{"yes", Affirmative},
		{"Yes please!", Affirmative},
		{"  YES  ", Affirmative},
		{"yessir", Affirmative},
		{"no", Negative},
		{"No thanks", Negative},
		{"not right now", Negative},
		{"maybe later", Other},
		{"", Other},
		{"🤷", Other},
	}
	for _, tc := range cases {
		if got := Classify(tc.text); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestIsReset(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"reset", "RESET", "Reset", "  reset  ", "\treset\n"} {
		if !IsReset(text) {
			t.Errorf("IsReset(%q) = false, want true", text)
		}
	}
	for _, text := range []string{"reset please", "unreset", "re set", ""} {
		if IsReset(text) {
			t.Errorf("IsReset(%q) = true, want false", text)
		}
	}
}
