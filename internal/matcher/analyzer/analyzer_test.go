package analyzer

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAnalyze(t *testing.T) {
	cases := []struct {
		text     string
		expected []string
	}{
		{text: "", expected: []string{}},
		{text: "   ", expected: []string{}},
		{text: "Canon", expected: []string{"canon"}},
		{text: "Canon PowerShot SD500 Digital Camera", expected: []string{"canon", "powershot", "sd500", "digital", "camera"}},
		{text: "DSC-W310", expected: []string{"dsc", "w310"}},
		{text: "Fujifilm FinePix (S1500), 10MP!!", expected: []string{"fujifilm", "finepix", "s1500", "10mp"}},
		{text: "a/b\tc\nd", expected: []string{"a", "b", "c", "d"}},
		{text: "Ünïcode ÉTÉ", expected: []string{"ünïcode", "été"}},
		{text: "--,,..", expected: []string{}},
	}

	for _, tt := range cases {
		t.Run(fmt.Sprintf("text = %q", tt.text), func(t *testing.T) {
			if diff := cmp.Diff(tt.expected, Analyze(tt.text)); diff != "" {
				t.Errorf("Diff: (-want +got)\n%s", diff)
			}
		})
	}
}

func TestAnalyzeIsSymmetric(t *testing.T) {
	model := Analyze("PowerShot SD500")
	title := Analyze("canon POWERSHOT sd500 kit")
	seen := make(map[string]bool, len(title))
	for _, term := range title {
		seen[term] = true
	}
	for _, term := range model {
		if !seen[term] {
			t.Errorf("model term %q not produced from title", term)
		}
	}
}

func TestTokenizePositions(t *testing.T) {
	expected := []Token{
		{Term: "nikon", Position: 0},
		{Term: "coolpix", Position: 1},
		{Term: "s3000", Position: 2},
	}
	if diff := cmp.Diff(expected, Tokenize("Nikon - Coolpix / S3000")); diff != "" {
		t.Errorf("Diff: (-want +got)\n%s", diff)
	}
}
