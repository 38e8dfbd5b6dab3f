package org

import (
	"context"
	"fmt"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

func (s *Service) Create(ctx context.Context, in EmployeeInput) (Employee, error) {
	if err := in.Validate(); err != nil {
		return Employee{}, err
	}
	return s.Store.Insert(ctx, in)
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	e, found, err := s.Store.Get(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if !found {
		return Employee{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, id string, in EmployeeInput) (Employee, error) {
	if err := in.Validate(); err != nil {
		return Employee{}, err
	}
	e, found, err := s.Store.Update(ctx, id, in)
	if err != nil {
		return Employee{}, err
	}
	if !found {
		return Employee{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	found, err := s.Store.SetStatus(ctx, id, "inactive")
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Employee, error) {
	return s.Store.List(ctx, filters)
}
