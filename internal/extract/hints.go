package extract

import (
	"net/mail"
	"regexp"
	"strings"

	"orderdesk/internal/util"
)

// CustomerHints are the customer details an order message states outright.
type CustomerHints struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

var (
	hintLine = regexp.MustCompile(`(?i)^\s*(customer(?: name)?|party(?: name)?|buyer|phone|tel|mob(?:ile)?(?: no\.?)?|contact(?: no\.?)?|e-?mail(?: id)?|(?:billing |delivery )?address|branch)\s*[:\-]\s*(.+)$`)
	emailRe  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// ParseHints reads "Label: value" lines. The first value per field wins.
func ParseHints(text string) CustomerHints {
	var h CustomerHints
	set := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	for _, line := range splitLines(text) {
		m := hintLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		label := strings.ToLower(m[1])
		value := util.NormalizeSpaces(m[2])
		switch {
		case strings.HasPrefix(label, "customer"), strings.HasPrefix(label, "party"), label == "buyer":
			set(&h.Name, value)
		case strings.HasPrefix(label, "phone"), strings.HasPrefix(label, "tel"), strings.HasPrefix(label, "mob"), strings.HasPrefix(label, "contact"):
			set(&h.Phone, value)
		case strings.HasPrefix(label, "e"):
			if addr := emailRe.FindString(value); addr != "" {
				set(&h.Email, addr)
			}
		case strings.HasSuffix(label, "address"):
			set(&h.Address, value)
		case label == "branch":
			set(&h.Branch, value)
		}
	}
	return h
}

func senderAddress(from string) string {
	if from == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return emailRe.FindString(from)
}
