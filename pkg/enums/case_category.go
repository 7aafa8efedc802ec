package enums

import "fmt"

// CaseCategory is the closed set of practice areas a case can be filed under.
type CaseCategory string

const (
	CaseCategoryFamily               CaseCategory = "family"
	CaseCategoryCriminal             CaseCategory = "criminal"
	CaseCategoryCorporate            CaseCategory = "corporate"
	CaseCategoryImmigration          CaseCategory = "immigration"
	CaseCategoryLabor                CaseCategory = "labor"
	CaseCategoryIntellectualProperty CaseCategory = "intellectual_property"
	CaseCategoryRealEstate           CaseCategory = "real_estate"
	CaseCategoryTax                  CaseCategory = "tax"
)

var validCaseCategories = []CaseCategory{
	CaseCategoryFamily,
	CaseCategoryCriminal,
	CaseCategoryCorporate,
	CaseCategoryImmigration,
	CaseCategoryLabor,
	CaseCategoryIntellectualProperty,
	CaseCategoryRealEstate,
	CaseCategoryTax,
}

// String implements fmt.Stringer.
func (c CaseCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CaseCategory.
func (c CaseCategory) IsValid() bool {
	for _, candidate := range validCaseCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCaseCategory converts raw input into a CaseCategory.
func ParseCaseCategory(value string) (CaseCategory, error) {
	for _, candidate := range validCaseCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid case category %q", value)
}
