package command

import "bike-rental/rental"

// Undo steps back one committed change.
type Undo struct{}

func (Undo) Name() string { return "undo" }

func (Undo) Execute(m *rental.Manager) (Result, error) {
	if err := m.Undo(); err != nil {
		return Result{}, err
	}
	return Result{Message: "Undo success!"}, nil
}

// Redo re-applies the last undone change.
type Redo struct{}

func (Redo) Name() string { return "redo" }

func (Redo) Execute(m *rental.Manager) (Result, error) {
	if err := m.Redo(); err != nil {
		return Result{}, err
	}
	return Result{Message: "Redo success!"}, nil
}
