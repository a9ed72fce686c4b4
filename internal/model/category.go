package model

import "fmt"

// Category is the closed set of labels a thread can be classified into.
type Category string

// Category constants.
const (
	CategorySupportAccess    Category = "support_access"
	CategorySupportRefund    Category = "support_refund"
	CategorySupportTransfer  Category = "support_transfer"
	CategorySupportTechnical Category = "support_technical"
	CategorySupportBilling   Category = "support_billing"
	CategoryPresalesFAQ      Category = "presales_faq"
	CategoryPresalesConsult  Category = "presales_consult"
	CategoryPresalesTeam     Category = "presales_team"
	CategoryFanMail          Category = "fan_mail"
	CategorySpam             Category = "spam"
	CategorySystem           Category = "system"
	CategoryResolved         Category = "resolved"
	CategoryUnknown          Category = "unknown"
)

// AllCategories lists every category in a stable order.
var AllCategories = []Category{
	CategorySupportAccess,
	CategorySupportRefund,
	CategorySupportTransfer,
	CategorySupportTechnical,
	CategorySupportBilling,
	CategoryPresalesFAQ,
	CategoryPresalesConsult,
	CategoryPresalesTeam,
	CategoryFanMail,
	CategorySpam,
	CategorySystem,
	CategoryResolved,
	CategoryUnknown,
}

// Family groups categories that are "near" each other. Confusing two
// categories of the same family is a smaller mistake than crossing families.
type Family string

// Family constants.
const (
	FamilySupport  Family = "support"
	FamilyPresales Family = "presales"
	FamilyFan      Family = "fan"
	FamilyNoise    Family = "noise"
	FamilyClosed   Family = "closed"
	FamilyUnknown  Family = "unknown"
)

var categoryFamilies = map[Category]Family{
	CategorySupportAccess:    FamilySupport,
	CategorySupportRefund:    FamilySupport,
	CategorySupportTransfer:  FamilySupport,
	CategorySupportTechnical: FamilySupport,
	CategorySupportBilling:   FamilySupport,
	CategoryPresalesFAQ:      FamilyPresales,
	CategoryPresalesConsult:  FamilyPresales,
	CategoryPresalesTeam:     FamilyPresales,
	CategoryFanMail:          FamilyFan,
	CategorySpam:             FamilyNoise,
	CategorySystem:           FamilyNoise,
	CategoryResolved:         FamilyClosed,
	CategoryUnknown:          FamilyUnknown,
}

// neverAutoSend holds categories that involve money or irreversible account
// changes. Trust never unlocks autonomous sending for them.
var neverAutoSend = map[Category]bool{
	CategorySupportRefund:   true,
	CategorySupportTransfer: true,
	CategorySupportBilling:  true,
}

// IsValid reports whether c is a member of the closed enumeration.
func (c Category) IsValid() bool {
	_, ok := categoryFamilies[c]
	return ok
}

// Family returns the family c belongs to. Unrecognised values map to FamilyUnknown.
func (c Category) Family() Family {
	if f, ok := categoryFamilies[c]; ok {
		return f
	}
	return FamilyUnknown
}

// NeverAutoSend reports whether c is statically excluded from autonomous action.
func (c Category) NeverAutoSend() bool {
	return neverAutoSend[c]
}

// NeverAutoSendCategories returns the static never-auto-send set.
func NeverAutoSendCategories() []Category {
	out := make([]Category, 0, len(neverAutoSend))
	for _, c := range AllCategories {
		if neverAutoSend[c] {
			out = append(out, c)
		}
	}
	return out
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return CategoryUnknown, fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
