package org

import (
	"fmt"
	"strings"
	"time"
)

type Employee struct {
	ID         string    `json:"id"`
	EmployeeNo string    `json:"employeeNo"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	ManagerID  string    `json:"managerId,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type EmployeeInput struct {
	EmployeeNo string `json:"employeeNo"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Position   string `json:"position"`
	ManagerID  string `json:"managerId,omitempty"`
}

func (in EmployeeInput) Validate() error {
	if strings.TrimSpace(in.EmployeeNo) == "" {
		return fmt.Errorf("%w: employee number is required", ErrValidation)
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	if !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	return nil
}

type ListFilters struct {
	Department string
	Status     string
	ManagerID  string
	Limit      int
	Offset     int
}
