package models

import "github.com/dmitrijs2005/expensekeeper/internal/common"

// Category is one of a fixed, closed set of expense categories.
type Category string

const (
	CategoryGroceries   Category = "Groceries"
	CategoryLeisure     Category = "Leisure"
	CategoryElectronics Category = "Electronics"
	CategoryUtilities   Category = "Utilities"
	CategoryClothing    Category = "Clothing"
	CategoryHealth      Category = "Health"
	CategoryOthers      Category = "Others"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryGroceries,
	CategoryLeisure,
	CategoryElectronics,
	CategoryUtilities,
	CategoryClothing,
	CategoryHealth,
	CategoryOthers,
}

// ParseCategory returns the Category equal to s (exact, case-sensitive) or
// a *common.InvalidCategoryError naming s.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &common.InvalidCategoryError{Value: s}
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}
