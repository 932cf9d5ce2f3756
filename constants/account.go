package constants

import (
	"fmt"
	"strconv"
	"strings"
)

// RoleBorrower is the role given to auto-provisioned accounts.
const RoleBorrower = "borrower"

// ClientNumberPrefix starts every client number, e.g. KNRFS00042.
const ClientNumberPrefix = "KNRFS"

// FormatClientNumber renders the n-th client number.
func FormatClientNumber(n int) string {
	return fmt.Sprintf("%s%05d", ClientNumberPrefix, n)
}

// ParseClientNumber returns the sequence of a client number.
func ParseClientNumber(s string) (int, bool) {
	rest, ok := strings.CutPrefix(s, ClientNumberPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
