package customers

import (
	"strings"

	"orderdesk/internal"
	"orderdesk/internal/util"
)

// Directory is the set of customers an operator can pick from: the ones
// loaded from the store plus the ones created during this session that the
// store has not been re-read for.
type Directory struct {
	Remote  []internal.Customer
	Pending []internal.Customer
}

// Union lists remote customers then pending ones, keeping the first record
// for each normalized name.
func (d Directory) Union() []internal.Customer {
	out := make([]internal.Customer, 0, len(d.Remote)+len(d.Pending))
	seen := map[string]struct{}{}
	add := func(list []internal.Customer) {
		for _, c := range list {
			key := util.Normalize(c.Name)
			if key != "" {
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, c)
		}
	}
	add(d.Remote)
	add(d.Pending)
	return out
}

func (d Directory) Search(query string) []internal.Customer {
	all := d.Union()
	if strings.TrimSpace(query) == "" {
		return all
	}
	q := strings.ToLower(query)
	out := make([]internal.Customer, 0, len(all))
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

func (d Directory) FindExact(name string) (internal.Customer, bool) {
	for _, c := range d.Union() {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return internal.Customer{}, false
}

func (d *Directory) AddPending(c internal.Customer) {
	d.Pending = append(d.Pending, c)
}

func ResolveCustomers(query string, remote, pending []internal.Customer) []internal.Customer {
	return Directory{Remote: remote, Pending: pending}.Search(query)
}

// Autofill copies the contact fields of a picked customer into the order
// header.
func Autofill(header internal.OrderHeader, c internal.Customer) internal.OrderHeader {
	header.CustomerName = c.Name
	header.CustomerEmail = c.Email
	header.CustomerContactNo = c.ContactNo
	header.BillingAddress = c.BillingAddress
	header.DeliveryAddress = c.DeliveryAddress
	return header
}
