package roster

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"orderdesk/internal"
	"orderdesk/internal/util"
)

// Overlaps reports whether two sales-person names refer to the same person:
// after Normalize, one contains the other. The test is loose, so "Ravi"
// also overlaps "Ravindra". An empty side never matches.
func Overlaps(a, b string) bool {
	na := util.Normalize(a)
	nb := util.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func Find(name string, roster []internal.SalesPerson) (internal.SalesPerson, bool) {
	for _, sp := range roster {
		if Overlaps(sp.FullName(), name) {
			return sp, true
		}
	}
	return internal.SalesPerson{}, false
}

func ExactByFullName(name string, roster []internal.SalesPerson) (internal.SalesPerson, bool) {
	name = strings.TrimSpace(name)
	for _, sp := range roster {
		if strings.EqualFold(sp.FullName(), name) {
			return sp, true
		}
	}
	return internal.SalesPerson{}, false
}

func VisibleForBranch(branchID string, roster []internal.SalesPerson) []internal.SalesPerson {
	var out []internal.SalesPerson
	for _, sp := range roster {
		if strings.EqualFold(sp.BranchID, branchID) {
			out = append(out, sp)
		}
	}
	return out
}

// GhostBranch picks the branch new placeholder users are filed under,
// based on the branch of the operator running the import.
func GhostBranch(sessionBranchID string) string {
	switch strings.ToLower(strings.TrimSpace(sessionBranchID)) {
	case "ho_uls", "uls":
		return "uls"
	case "udh":
		return "udh"
	case "ahm":
		return "ahm"
	case "del":
		return "del"
	default:
		return "mum"
	}
}

// NewGhost builds a placeholder sales-person account for a name found in a
// customer import. The returned password is the plain token; the record
// only carries its bcrypt hash.
func NewGhost(fullName, branchID, emailDomain string, now time.Time) (internal.SalesPerson, string, error) {
	first, last := util.SplitFullName(fullName, "Sales")
	local := util.Normalize(fullName)
	if local == "" {
		local = "sales"
	}

	token := make([]byte, 8)
	if _, err := rand.Read(token); err != nil {
		return internal.SalesPerson{}, "", err
	}
	password := hex.EncodeToString(token)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return internal.SalesPerson{}, "", err
	}

	return internal.SalesPerson{
		FirstName:    first,
		LastName:     last,
		Email:        fmt.Sprintf("%s.%04d@%s", local, now.UnixMilli()%10000, emailDomain),
		PasswordHash: string(hash),
		BranchID:     branchID,
		Ghost:        true,
	}, password, nil
}
