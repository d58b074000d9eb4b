package subscribers

import (
	"net/mail"
	"strings"

	"newsletter/types"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ParseAddress returns the bare address in s, or ErrInvalidAddress.
func ParseAddress(s string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", ErrInvalidAddress
	}
	return addr.Address, nil
}

func recipient(rec Record) (string, bool) {
	sub, ok := rec[types.AttrSubscribed].(*ddbtypes.AttributeValueMemberBOOL)
	if !ok || !sub.Value {
		return "", false
	}
	email, ok := rec[types.AttrEmail].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	addr, err := ParseAddress(email.Value)
	if err != nil {
		return "", false
	}
	return addr, true
}

// Recipients returns the addresses of subscribed records. Records that are not
// subscribed, or whose email is missing, not a string, or not an address, are dropped.
func Recipients(records []Record) []string {
	out, _ := RecipientsWithStats(records)
	return out
}

// RecipientsWithStats is Recipients that also reports how many records were dropped,
// including case-insensitive duplicates of an earlier address.
func RecipientsWithStats(records []Record) ([]string, int) {
	out := []string{}
	seen := map[string]bool{}
	skipped := 0
	for _, rec := range records {
		addr, ok := recipient(rec)
		key := strings.ToLower(addr)
		if !ok || seen[key] {
			skipped++
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out, skipped
}
