package rules

import "microsoc/pkg/models"

// Engine applies detection rules to enriched events.
type Engine interface {
	Apply(event *models.Event) []models.Tag
}

// NoopEngine returns no tags.
type NoopEngine struct{}

// Apply returns an empty tag list.
func (n *NoopEngine) Apply(event *models.Event) []models.Tag {
	return nil
}
