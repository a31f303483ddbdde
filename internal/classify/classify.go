package classify

import "microsoc/pkg/models"

// Abuse score thresholds for severity classification.
const (
	criticalAbove = 80
	highAbove     = 50
	mediumAbove   = 20
)

// Classify maps an abuse score to a severity level.
func Classify(abuseScore int) models.Severity {
	switch {
	case abuseScore > criticalAbove:
		return models.SeverityCritical
	case abuseScore > highAbove:
		return models.SeverityHigh
	case abuseScore > mediumAbove:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
