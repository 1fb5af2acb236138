package customers

import (
	"sort"
	"strings"
)

type Branch struct {
	ID         string
	Name       string
	HeadOffice bool
}

var Branches = []Branch{
	{ID: "bangalore", Name: "Banglore", HeadOffice: true},
	{ID: "tirupur", Name: "Tirupur"},
	{ID: "delhi", Name: "Delhi", HeadOffice: true},
	{ID: "ahmedabad", Name: "Ahmedabad"},
	{ID: "ludhiana", Name: "Ludhiana"},
	{ID: "surat", Name: "Surat"},
	{ID: "ulhasnagar", Name: "Ulhasnagar", HeadOffice: true},
	{ID: "mumbai", Name: "Mumbai", HeadOffice: true},
}

// HeadOfficeAliases maps the branch ids stored on head-office accounts to
// the branch they belong to.
var HeadOfficeAliases = map[string]string{
	"ho_mum":   "mumbai",
	"ho_uls":   "ulhasnagar",
	"ho_bnglr": "bangalore",
	"ho_delhi": "delhi",
	"ho_tnp":   "tirupur",
	"ho_ahl":   "ahmedabad",
	"ho_lud":   "ludhiana",
	"ho_srt":   "surat",
}

func CanonicalBranchID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	if mapped, ok := HeadOfficeAliases[id]; ok {
		return mapped
	}
	return id
}

func BranchByID(id string) (Branch, bool) {
	id = CanonicalBranchID(id)
	for _, b := range Branches {
		if b.ID == id {
			return b, true
		}
	}
	return Branch{}, false
}

func BranchByName(name string) (Branch, bool) {
	for _, b := range Branches {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return b, true
		}
	}
	return Branch{}, false
}

// BranchIDs returns the canonical id followed by every head-office alias
// that maps to it, aliases in sorted order.
func BranchIDs(id string) []string {
	canonical := CanonicalBranchID(id)
	var aliases []string
	for alias, target := range HeadOfficeAliases {
		if target == canonical {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return append([]string{canonical}, aliases...)
}

// BranchVariations lists the spellings a customer row may carry in its
// branch column for the given branch id, most specific first.
func BranchVariations(branchID string) []string {
	var out []string
	if b, ok := BranchByID(branchID); ok && b.HeadOffice {
		out = append(out, b.Name+" HO", b.Name)
	}
	out = append(out, branchID, strings.ToUpper(branchID))
	if branchID != "" {
		out = append(out, strings.ToUpper(branchID[:1])+branchID[1:])
	}
	return out
}

// HeadOfficeLabel is the branch label written on customers created from
// the order form.
func HeadOfficeLabel(branch string) string {
	switch {
	case strings.EqualFold(branch, "mumbai"):
		return "Mumbai HO"
	case strings.EqualFold(branch, "ulhasnagar"):
		return "Ulhasnagar HO"
	default:
		return branch
	}
}
