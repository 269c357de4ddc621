package student

import "strings"

type Student struct {
	ID         string `json:"id" bson:"_id"`
	Name       string `json:"name" bson:"name"`
	Email      string `json:"email,omitempty" bson:"email,omitempty"`
	MacAddress string `json:"mac_address" bson:"mac_address"`
}

// NormalizeAddress returns the canonical form of a device hardware address.
func NormalizeAddress(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
