package domain

import "strings"

// Actor is the caller of an action, identified by wallet address. An empty
// address is an anonymous visitor.
type Actor struct {
	Address string
}

// Authenticated reports whether the actor signed in with a wallet.
func (a Actor) Authenticated() bool {
	return strings.TrimSpace(a.Address) != ""
}

// Is reports whether the actor owns addr.
func (a Actor) Is(addr string) bool {
	return a.Authenticated() && addr != "" && strings.EqualFold(strings.TrimSpace(a.Address), addr)
}
