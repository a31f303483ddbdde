package operators

import "microsoc/pkg/models"

// Directory is a read-only operator registry seeded at startup. Credential
// checking lives outside this system; the directory only maps opaque
// operator ids to identity for attribution and display.
type Directory struct {
	byID  map[string]models.Operator
	order []string
}

// NewDirectory creates a directory from seeded operators.
func NewDirectory(seed []models.Operator) *Directory {
	d := &Directory{byID: make(map[string]models.Operator, len(seed))}
	for _, op := range seed {
		if op.ID == "" {
			continue
		}
		if _, exists := d.byID[op.ID]; exists {
			continue
		}
		d.byID[op.ID] = op
		d.order = append(d.order, op.ID)
	}
	return d
}

// Get returns the operator for an id.
func (d *Directory) Get(id string) (models.Operator, bool) {
	op, ok := d.byID[id]
	return op, ok
}

// IsAdmin reports whether the id belongs to an Admin operator.
func (d *Directory) IsAdmin(id string) bool {
	op, ok := d.byID[id]
	return ok && op.Role == models.RoleAdmin
}

// List returns all operators in seed order.
func (d *Directory) List() []models.Operator {
	out := make([]models.Operator, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id])
	}
	return out
}
