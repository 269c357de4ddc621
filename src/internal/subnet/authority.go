package subnet

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// Authority decides whether a client address is on a trusted network.
type Authority interface {
	IsTrusted(ctx context.Context, address string) bool
}

type authority struct {
	repo Repository
}

func NewAuthority(repo Repository) Authority {
	return &authority{repo: repo}
}

// IsTrusted reports whether any approved prefix is a literal string prefix
// of address. It fails closed: an empty address, no configured prefixes or a
// store error all yield false. Blank prefixes never match.
func (a *authority) IsTrusted(ctx context.Context, address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}

	prefixes, err := a.repo.ListPrefixes(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Approved subnets unavailable, rejecting address")
		return false
	}

	return matchAny(prefixes, address)
}

func matchAny(prefixes []string, address string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSpace(prefix)
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(address, prefix) {
			return true
		}
	}
	return false
}
