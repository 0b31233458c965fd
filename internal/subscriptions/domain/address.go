package domain

import (
	"fmt"
	"strings"

	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
)

// AddressSnapshot is the shipping address copied onto a subscription when it is
// created. It is never re-read from the customer's address book.
type AddressSnapshot struct {
	firstName string
	lastName  string
	street1   string
	street2   string
	city      string
	state     string
	zipCode   string
	phone     string
}

// AddressInput carries raw address fields from callers.
type AddressInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Street1   string `json:"street1"`
	Street2   string `json:"street2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Phone     string `json:"phone,omitempty"`
}

// NewAddressSnapshot trims and validates the input. Street2 and phone are optional.
func NewAddressSnapshot(in AddressInput) (AddressSnapshot, error) {
	a := AddressSnapshot{
		firstName: strings.TrimSpace(in.FirstName),
		lastName:  strings.TrimSpace(in.LastName),
		street1:   strings.TrimSpace(in.Street1),
		street2:   strings.TrimSpace(in.Street2),
		city:      strings.TrimSpace(in.City),
		state:     strings.TrimSpace(in.State),
		zipCode:   strings.TrimSpace(in.ZipCode),
		phone:     strings.TrimSpace(in.Phone),
	}

	required := []struct{ name, value string }{
		{"first name", a.firstName},
		{"last name", a.lastName},
		{"street", a.street1},
		{"city", a.city},
		{"state", a.state},
		{"zip code", a.zipCode},
	}
	for _, f := range required {
		if f.value == "" {
			return AddressSnapshot{}, fmt.Errorf("%w: address %s is required", ErrValidation, f.name)
		}
	}
	return a, nil
}

// RehydrateAddressSnapshot rebuilds a snapshot from storage without validation.
func RehydrateAddressSnapshot(in AddressInput) AddressSnapshot {
	return AddressSnapshot{
		firstName: in.FirstName,
		lastName:  in.LastName,
		street1:   in.Street1,
		street2:   in.Street2,
		city:      in.City,
		state:     in.State,
		zipCode:   in.ZipCode,
		phone:     in.Phone,
	}
}

func (a AddressSnapshot) FirstName() string { return a.firstName }
func (a AddressSnapshot) LastName() string  { return a.lastName }
func (a AddressSnapshot) Street1() string   { return a.street1 }
func (a AddressSnapshot) Street2() string   { return a.street2 }
func (a AddressSnapshot) City() string      { return a.city }
func (a AddressSnapshot) State() string     { return a.state }
func (a AddressSnapshot) ZipCode() string   { return a.zipCode }
func (a AddressSnapshot) Phone() string     { return a.phone }

// Input exports the snapshot's fields.
func (a AddressSnapshot) Input() AddressInput {
	return AddressInput{
		FirstName: a.firstName,
		LastName:  a.lastName,
		Street1:   a.street1,
		Street2:   a.street2,
		City:      a.city,
		State:     a.state,
		ZipCode:   a.zipCode,
		Phone:     a.phone,
	}
}

// Equals compares snapshots field by field.
func (a AddressSnapshot) Equals(other sharedDomain.ValueObject) bool {
	o, ok := other.(AddressSnapshot)
	return ok && a == o
}
