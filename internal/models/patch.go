package models

import "fmt"

// PatchOp sets a single named field to a value
type PatchOp struct {
	Field string
	Value interface{}
}

// PatchSet is a typed multi-field update against one record. All ops in
// a set commit together or not at all; the repository applies them in a
// single transaction.
type PatchSet struct {
	ops []PatchOp
}

// NewPatchSet creates an empty patch set
func NewPatchSet() *PatchSet {
	return &PatchSet{}
}

// Set appends a field update, returning the set for chaining
func (p *PatchSet) Set(field string, value interface{}) *PatchSet {
	p.ops = append(p.ops, PatchOp{Field: field, Value: value})
	return p
}

// Ops returns the ordered field updates
func (p *PatchSet) Ops() []PatchOp {
	return p.ops
}

// Empty reports whether the set contains no updates
func (p *PatchSet) Empty() bool {
	return len(p.ops) == 0
}

// Validate rejects a set that is empty or touches a field twice
func (p *PatchSet) Validate() error {
	if p.Empty() {
		return ErrEmptyPatchSet
	}
	seen := make(map[string]bool, len(p.ops))
	for _, op := range p.ops {
		if op.Field == "" {
			return ErrEmptyPatchField
		}
		if seen[op.Field] {
			return fmt.Errorf("%w: %s", ErrDuplicatePatchField, op.Field)
		}
		seen[op.Field] = true
	}
	return nil
}

// Common patch errors
var (
	ErrEmptyPatchSet       = fmt.Errorf("patch set is empty")
	ErrEmptyPatchField     = fmt.Errorf("patch field name is required")
	ErrDuplicatePatchField = fmt.Errorf("patch set touches field twice")
)
