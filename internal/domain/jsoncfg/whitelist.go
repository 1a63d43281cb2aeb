package jsoncfg

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fundhub/internal/domain"
)

// WhitelistJSON mirrors the whitelist document served to clients.
type WhitelistJSON struct {
	Version                string         `json:"version"`
	TokenWhitelist         []domain.Token `json:"tokenWhitelist"`
	ReviewerWhitelist      []Address      `json:"reviewerWhitelist"`
	DelegateWhitelist      []Address      `json:"delegateWhitelist"`
	ProjectOwnersWhitelist []Address      `json:"projectOwnersWhitelist"`
}

// Address is a whitelisted account.
type Address struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

const (
	// DefaultWhitelistVersion is applied when the document omits a version.
	DefaultWhitelistVersion = "2019-01"
	// NativeTokenSymbol is renamed with the network prefix on display.
	NativeTokenSymbol = "ETH"
	// DefaultTokenDecimals is used for tokens that do not declare decimals.
	DefaultTokenDecimals = 18
)

var ErrEmptyTokenWhitelist = errors.New("tokenWhitelist must contain at least one token")

// Normalize applies defaults: version, token decimals, lower-cased addresses
// and the network-prefixed name of the native token.
func (w *WhitelistJSON) Normalize(networkName string) {
	if w == nil {
		return
	}
	if w.Version == "" {
		w.Version = DefaultWhitelistVersion
	}
	title := cases.Title(language.English)
	for i := range w.TokenWhitelist {
		t := &w.TokenWhitelist[i]
		t.Symbol = strings.TrimSpace(t.Symbol)
		t.Address = strings.ToLower(strings.TrimSpace(t.Address))
		*t = t.Normalize()
		if strings.EqualFold(t.Symbol, NativeTokenSymbol) && strings.TrimSpace(networkName) != "" {
			t.Name = title.String(strings.TrimSpace(networkName)) + " " + NativeTokenSymbol
		}
		if t.Name == "" {
			t.Name = t.Symbol
		}
	}
	for _, list := range [][]Address{w.ReviewerWhitelist, w.DelegateWhitelist, w.ProjectOwnersWhitelist} {
		for i := range list {
			list[i].Address = strings.ToLower(strings.TrimSpace(list[i].Address))
		}
	}
}

// Validate ensures the whitelist can serve delegation and review checks.
func (w WhitelistJSON) Validate() error {
	if len(w.TokenWhitelist) == 0 {
		return ErrEmptyTokenWhitelist
	}
	seen := make(map[string]struct{}, len(w.TokenWhitelist))
	for i, t := range w.TokenWhitelist {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tokenWhitelist[%d]: %w", i, err)
		}
		key := strings.ToUpper(t.Symbol)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("tokenWhitelist[%d]: duplicate symbol %s", i, t.Symbol)
		}
		seen[key] = struct{}{}
	}
	for name, list := range map[string][]Address{
		"reviewerWhitelist":      w.ReviewerWhitelist,
		"delegateWhitelist":      w.DelegateWhitelist,
		"projectOwnersWhitelist": w.ProjectOwnersWhitelist,
	} {
		for i, a := range list {
			if a.Address == "" {
				return fmt.Errorf("%s[%d].address is required", name, i)
			}
		}
	}
	return nil
}

// Whitelist is the loaded, read-only view of a WhitelistJSON.
type Whitelist struct {
	doc WhitelistJSON
}

// Parse decodes, normalizes and validates a whitelist document.
func Parse(raw []byte, networkName string) (*Whitelist, error) {
	var doc WhitelistJSON
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode whitelist: %w", err)
	}
	doc.Normalize(networkName)
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid whitelist: %w", err)
	}
	return &Whitelist{doc: doc}, nil
}

// Load reads the whitelist file once at process start.
func Load(path, networkName string) (*Whitelist, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read whitelist: %w", err)
	}
	return Parse(raw, networkName)
}

// Tokens returns a copy of the token whitelist in document order.
func (w *Whitelist) Tokens() []domain.Token {
	out := make([]domain.Token, len(w.doc.TokenWhitelist))
	copy(out, w.doc.TokenWhitelist)
	return out
}

// DefaultToken is the first whitelisted token.
func (w *Whitelist) DefaultToken() domain.Token {
	return w.doc.TokenWhitelist[0]
}

// TokenByAddress finds a whitelisted token by contract address.
func (w *Whitelist) TokenByAddress(address string) (domain.Token, bool) {
	address = strings.ToLower(strings.TrimSpace(address))
	for _, t := range w.doc.TokenWhitelist {
		if t.Address == address {
			return t, true
		}
	}
	return domain.Token{}, false
}

// TokenBySymbol finds a whitelisted token by symbol, ignoring case.
func (w *Whitelist) TokenBySymbol(symbol string) (domain.Token, bool) {
	for _, t := range w.doc.TokenWhitelist {
		if strings.EqualFold(t.Symbol, strings.TrimSpace(symbol)) {
			return t, true
		}
	}
	return domain.Token{}, false
}

// Resolve maps a token reference (address first, then symbol) to the
// whitelisted token.
func (w *Whitelist) Resolve(ref domain.Token) (domain.Token, bool) {
	if ref.Address != "" {
		if t, ok := w.TokenByAddress(ref.Address); ok {
			return t, true
		}
	}
	if ref.Symbol != "" {
		return w.TokenBySymbol(ref.Symbol)
	}
	return domain.Token{}, false
}

func (w *Whitelist) IsReviewer(addr string) bool {
	return contains(w.doc.ReviewerWhitelist, addr)
}

func (w *Whitelist) IsDelegate(addr string) bool {
	return contains(w.doc.DelegateWhitelist, addr)
}

func (w *Whitelist) IsProjectOwner(addr string) bool {
	return contains(w.doc.ProjectOwnersWhitelist, addr)
}

// Document returns a copy of the normalized document.
func (w *Whitelist) Document() WhitelistJSON {
	doc := w.doc
	doc.TokenWhitelist = w.Tokens()
	doc.ReviewerWhitelist = append([]Address(nil), w.doc.ReviewerWhitelist...)
	doc.DelegateWhitelist = append([]Address(nil), w.doc.DelegateWhitelist...)
	doc.ProjectOwnersWhitelist = append([]Address(nil), w.doc.ProjectOwnersWhitelist...)
	return doc
}

func contains(list []Address, addr string) bool {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return false
	}
	for _, a := range list {
		if a.Address == addr {
			return true
		}
	}
	return false
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
