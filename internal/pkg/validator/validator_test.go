package validator

import (
	"errors"
	"testing"

	"hotelbooking/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Room(t *testing.T) {
	errs := Validate(domain.Room{RoomNumber: "101", RoomType: domain.RoomSuite, PricePerNight: 100, Capacity: 2})
	assert.Nil(t, errs)

	errs = Validate(domain.Room{RoomType: domain.RoomSuite, Capacity: 0})
	assert.Equal(t, "required", errs["RoomNumber"])
	assert.Equal(t, "required", errs["Capacity"])
	assert.Equal(t, "required", errs["PricePerNight"])
}

func TestBindingErrors_NonValidationError(t *testing.T) {
	errs := BindingErrors(errors.New("unexpected EOF"))
	assert.Equal(t, "unexpected EOF", errs["body"])
}
