package command

import (
	"fmt"

	"bike-rental/rental"
)

// AddBike registers a new bike.
type AddBike struct {
	Bike rental.Bike
}

func (AddBike) Name() string { return "add bike" }

func (c AddBike) Execute(m *rental.Manager) (Result, error) {
	err := apply(m, func(s *rental.VersionedStore) error {
		return s.AddBike(c.Bike)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("New bike added: %s", c.Bike.Name)}, nil
}

// DeleteBike removes a bike no loan refers to.
type DeleteBike struct {
	Protected
	BikeName string
}

func (DeleteBike) Name() string { return "delete bike" }

func (c DeleteBike) Execute(m *rental.Manager) (Result, error) {
	if err := c.Authorize(m); err != nil {
		return Result{}, err
	}
	var deleted rental.Bike
	err := apply(m, func(s *rental.VersionedStore) error {
		b, ok := s.BikeByName(c.BikeName)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBike, c.BikeName)
		}
		if loans := s.LoansForBike(b.Name); len(loans) > 0 {
			return fmt.Errorf("%w: %s is used by loan %d", ErrBikeInUse, b.Name, loans[0].ID)
		}
		deleted = b
		return s.RemoveBike(b)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Deleted bike: %s", deleted.Name)}, nil
}

// EditBike renames a bike and every loan that refers to it, as one undo step.
type EditBike struct {
	BikeName string
	Renamed  rental.Bike
}

func (EditBike) Name() string { return "edit bike" }

func (c EditBike) Execute(m *rental.Manager) (Result, error) {
	var moved int
	err := apply(m, func(s *rental.VersionedStore) error {
		old, ok := s.BikeByName(c.BikeName)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBike, c.BikeName)
		}
		if err := s.ReplaceBike(old, c.Renamed); err != nil {
			return err
		}
		if old.Name == c.Renamed.Name {
			return nil
		}
		for _, l := range s.LoansForBike(old.Name) {
			if err := s.ReplaceLoan(l, l.WithBike(c.Renamed.Name)); err != nil {
				return err
			}
			moved++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Edited bike: %s -> %s (%d loans updated)", c.BikeName, c.Renamed.Name, moved)}, nil
}

// ClearBikes removes every bike. It refuses while any loan exists.
type ClearBikes struct {
	Protected
}

func (ClearBikes) Name() string { return "clear bikes" }

func (c ClearBikes) Execute(m *rental.Manager) (Result, error) {
	if err := c.Authorize(m); err != nil {
		return Result{}, err
	}
	err := apply(m, func(s *rental.VersionedStore) error {
		if n := len(s.Loans()); n > 0 {
			return fmt.Errorf("%w: %d loans reference the bike list", ErrLoansExist, n)
		}
		s.ResetBikes()
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: "All bikes cleared"}, nil
}

// ListBikes is a read-only listing.
type ListBikes struct{}

func (ListBikes) Name() string { return "list bikes" }

func (ListBikes) Execute(m *rental.Manager) (Result, error) {
	bikes := m.Store().Bikes()
	return Result{Message: fmt.Sprintf("%d bikes listed", len(bikes)), Bikes: bikes}, nil
}
