package intake

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"orderdesk/internal"
	"orderdesk/internal/catalog"
	"orderdesk/internal/customers"
	"orderdesk/internal/extract"
	"orderdesk/internal/util"
)

// BuildDraft resolves extracted lines against the catalog and fills the
// header from the customer list. Lines with no catalog match keep their
// text as a manual item name.
func BuildDraft(idx *catalog.Index, known []internal.Customer, lines []internal.ExtractedLine, hints extract.CustomerHints) internal.InboxDraft {
	draft := internal.InboxDraft{Header: headerFromHints(known, hints)}
	for _, ex := range lines {
		draft.Lines = append(draft.Lines, resolveLine(idx, ex))
	}
	return draft
}

func resolveLine(idx *catalog.Index, ex internal.ExtractedLine) internal.DraftLine {
	line := internal.LineItem{ID: uuid.NewString(), UOM: util.StringOrEmpty(ex.Unit)}
	if ex.Qty != nil {
		line.QuantityText = strconv.FormatFloat(*ex.Qty, 'f', -1, 64)
		line.Quantity = util.ParseQuantity(line.QuantityText)
	}

	item, status := idx.Match(ex.Name, "")
	if status == internal.MatchNotFound {
		line.ManualItemName = ex.Name
	} else {
		line.ItemName = item.ItemName
		line = catalog.ApplyDefaults(line, item)
	}
	return internal.DraftLine{Extracted: ex, Status: status, Line: line}
}

func headerFromHints(known []internal.Customer, hints extract.CustomerHints) internal.OrderHeader {
	header := internal.OrderHeader{
		CustomerName:      hints.Name,
		CustomerEmail:     hints.Email,
		CustomerContactNo: hints.Phone,
		BillingAddress:    hints.Address,
		DeliveryAddress:   hints.Address,
	}
	if c, ok := matchCustomer(known, hints); ok {
		header = customers.Autofill(header, c)
		if header.CustomerContactNo == "" {
			header.CustomerContactNo = hints.Phone
		}
		header.Branch = branchID(c.Branch)
	}
	if b := branchID(hints.Branch); b != "" {
		header.Branch = b
	}
	return header
}

// matchCustomer tries the stated name, then the sender address, then the
// phone number, then a unique partial name match.
func matchCustomer(known []internal.Customer, hints extract.CustomerHints) (internal.Customer, bool) {
	dir := customers.Directory{Remote: known}
	if hints.Name != "" {
		if c, ok := dir.FindExact(hints.Name); ok {
			return c, true
		}
	}
	if hints.Email != "" {
		for _, c := range known {
			if strings.EqualFold(c.Email, hints.Email) {
				return c, true
			}
		}
	}
	if phone := util.Normalize(hints.Phone); phone != "" {
		for _, c := range known {
			if util.Normalize(c.ContactNo) == phone {
				return c, true
			}
		}
	}
	if hints.Name != "" {
		if found := dir.Search(hints.Name); len(found) == 1 {
			return found[0], true
		}
	}
	return internal.Customer{}, false
}

// branchID maps a branch label such as "Mumbai HO" to its branch id.
func branchID(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(label, " HO"), " ho"))
	if b, ok := customers.BranchByName(name); ok {
		return b.ID
	}
	if b, ok := customers.BranchByID(label); ok {
		return b.ID
	}
	return ""
}
