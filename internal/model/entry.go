package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Parse errors for Entry.
var (
	ErrInvalidPrice    = errors.New("price must be a decimal number")
	ErrInvalidQuantity = errors.New("quantity must be a whole number")
)

// Entry is the raw text a user typed into the item form.
type Entry struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// notBlank rejects empty and whitespace-only strings. validation.Required
// alone would let "   " through.
var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// Validate checks that every field holds some text. Numeric format is not
// checked here; Item reports that.
func (e Entry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, notBlank),
		validation.Field(&e.Price, notBlank),
		validation.Field(&e.Quantity, notBlank),
	)
}

// Item converts the entry into an item with the given id.
func (e Entry) Item(id int64) (Item, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(e.Price), 64)
	if err != nil {
		return Item{}, fmt.Errorf("%w: %w", ErrInvalidPrice, err)
	}
	// "Inf" and "NaN" parse but cannot be encoded as JSON.
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return Item{}, fmt.Errorf("%w: %q is not finite", ErrInvalidPrice, e.Price)
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(e.Quantity))
	if err != nil {
		return Item{}, fmt.Errorf("%w: %w", ErrInvalidQuantity, err)
	}

	return Item{
		ID:       id,
		Name:     e.Name,
		Price:    price,
		Quantity: quantity,
	}, nil
}

// FieldErrors flattens a validation error into field -> message pairs.
// It returns nil for errors that did not come from Validate.
func FieldErrors(err error) map[string]string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return nil
	}

	fields := make(map[string]string, len(errs))
	for field, fieldErr := range errs {
		fields[field] = fieldErr.Error()
	}
	return fields
}
