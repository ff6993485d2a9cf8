package sender

import (
	"net/mail"
	"strings"
)

// Normalize reduces an address such as "Sarah <Sarah@Example.com>" to the
// lowercase bare form used as the memory key
func Normalize(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	if parsed, err := mail.ParseAddress(address); err == nil {
		address = parsed.Address
	}
	return strings.ToLower(address)
}

// Domain returns the lowercase domain of an address, or "unknown" when it has none
func Domain(address string) string {
	parts := strings.Split(Normalize(address), "@")
	if len(parts) != 2 || parts[1] == "" {
		return "unknown"
	}
	return parts[1]
}

// Split parses a comma-separated address list and normalizes every entry
func Split(list string) []string {
	var out []string
	if parsed, err := mail.ParseAddressList(list); err == nil {
		for _, addr := range parsed {
			out = append(out, strings.ToLower(addr.Address))
		}
		return out
	}
	for _, part := range strings.Split(list, ",") {
		if addr := Normalize(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
