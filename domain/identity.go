package domain

import "strings"

// Identity is the signed-in user, either a guest username or a wallet.
type Identity struct {
	ID       string
	Username string
	Wallet   string
	Guest    bool
}

// SignedIn reports whether the identity can act (tip, vote, delete).
func (i Identity) SignedIn() bool {
	return strings.TrimSpace(i.Username) != "" || strings.TrimSpace(i.Wallet) != ""
}

// CanTip reports whether the identity has a wallet to send tips from.
func (i Identity) CanTip() bool {
	return strings.TrimSpace(i.Wallet) != ""
}

// DisplayName prefers the username and falls back to a shortened wallet.
func (i Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	return ShortWallet(i.Wallet)
}

// ShortWallet renders a wallet address as "abcd…wxyz".
func ShortWallet(w string) string {
	if len(w) <= 10 {
		return w
	}
	return w[:4] + "…" + w[len(w)-4:]
}
