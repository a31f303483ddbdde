package classify

import (
	"testing"

	"microsoc/pkg/models"
)

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		score int
		want  models.Severity
	}{
		{0, models.SeverityLow},
		{20, models.SeverityLow},
		{21, models.SeverityMedium},
		{50, models.SeverityMedium},
		{51, models.SeverityHigh},
		{80, models.SeverityHigh},
		{81, models.SeverityCritical},
		{100, models.SeverityCritical},
	}
	for _, tc := range cases {
		if got := Classify(tc.score); got != tc.want {
			t.Fatalf("Classify(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
