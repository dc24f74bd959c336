package validate

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/mikeydub/go-gallery-layout/service/persist"
)

// New returns a validator with every custom validator registered
func New() *validator.Validate {
	v := validator.New()
	RegisterCustomValidators(v)
	return v
}

func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("sorted_asc", SortedAscValidator)
	v.RegisterValidation("non_negative", NonNegativeValidator)
	v.RegisterValidation("max_columns", MaxColumnsValidator)
	v.RegisterAlias("columns", "max_columns=10")

	v.RegisterStructValidation(TokenLayoutValidator, persist.TokenLayout{})
	v.RegisterStructValidation(CollectionLayoutParamsValidator, CollectionLayoutParams{})
}

// CollectionLayoutParams are the tokens and layout of a collection, which are only valid together
type CollectionLayoutParams struct {
	Tokens []persist.DBID      `json:"tokens" validate:"required,unique"`
	Layout persist.TokenLayout `json:"layout"`
}

// TokenLayoutValidator checks that the sections and section layouts of a layout line up. Field
// level rules are carried by the persist struct tags.
func TokenLayoutValidator(sl validator.StructLevel) {
	layout := sl.Current().Interface().(persist.TokenLayout)

	if layout.IsLegacy() {
		return
	}

	if len(layout.Sections) != len(layout.SectionLayout) {
		sl.ReportError(layout.SectionLayout, "SectionLayout", "SectionLayout", "len", strconv.Itoa(len(layout.Sections)))
	}

	if len(layout.Sections) > 0 && layout.Sections[0] != 0 {
		sl.ReportError(layout.Sections, "Sections", "Sections", "startswith", "0")
	}
}

// CollectionLayoutParamsValidator checks that the layout fits the tokens it is saved with
func CollectionLayoutParamsValidator(sl validator.StructLevel) {
	params := sl.Current().Interface().(CollectionLayoutParams)

	if _, err := persist.ValidateLayout(params.Layout, params.Tokens); err != nil {
		sl.ReportError(params.Layout, "Layout", "Layout", "layout", err.Error())
	}
}

// SortedAscValidator validates that the array is sorted in ascending order.
var SortedAscValidator validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().([]int); ok {
		return sort.IntsAreSorted(s)
	}
	return false
}

// NonNegativeValidator validates that every value of an int slice is at least 0
var NonNegativeValidator validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().([]int)
	if !ok {
		return false
	}
	for _, n := range s {
		if n < 0 {
			return false
		}
	}
	return true
}

// MaxColumnsValidator validates column counts with a given maximum
var MaxColumnsValidator validator.Func = func(fl validator.FieldLevel) bool {
	maxColumns, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Errorf("error parsing MaxColumnsValidator parameter: %s", err))
	}

	columns := fl.Field().Int()
	return columns >= 0 && columns <= int64(maxColumns)
}
