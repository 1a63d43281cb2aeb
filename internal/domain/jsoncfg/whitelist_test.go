package jsoncfg

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fundhub/internal/domain"
)

const sampleWhitelist = `{
  "tokenWhitelist": [
    {"name": "Ether", "symbol": "ETH", "address": "0x0000000000000000000000000000000000000000", "decimals": 18},
    {"symbol": "DAI", "address": "0x6B175474E89094C44Da98b954EedeAC495271d0F"},
    {"symbol": "PTS", "address": "0x1111111111111111111111111111111111111111", "decimals": 0}
  ],
  "reviewerWhitelist": [{"address": "0xAbC"}],
  "delegateWhitelist": [{"address": " 0xDEF ", "name": "Delegate"}],
  "projectOwnersWhitelist": []
}`

func TestWhitelistNormalizeDefaults(t *testing.T) {
	w := &WhitelistJSON{
		TokenWhitelist: []domain.Token{{Symbol: "ETH"}, {Symbol: "DAI", Address: "0xABC"}},
	}
	w.Normalize("rinkeby")

	if w.Version != DefaultWhitelistVersion {
		t.Fatalf("Version = %q, want %q", w.Version, DefaultWhitelistVersion)
	}
	if got := w.TokenWhitelist[0].Name; got != "Rinkeby ETH" {
		t.Fatalf("native token name = %q, want %q", got, "Rinkeby ETH")
	}
	if got := w.TokenWhitelist[1].Decimals; got != DefaultTokenDecimals {
		t.Fatalf("Decimals = %d, want %d", got, DefaultTokenDecimals)
	}
	if got := w.TokenWhitelist[1].Address; got != "0xabc" {
		t.Fatalf("Address = %q, want lower-cased", got)
	}
	if got := w.TokenWhitelist[1].Name; got != "DAI" {
		t.Fatalf("Name = %q, want symbol fallback", got)
	}
}

func TestWhitelistNormalizeWithoutNetworkKeepsName(t *testing.T) {
	w := &WhitelistJSON{TokenWhitelist: []domain.Token{{Name: "Ether", Symbol: "ETH"}}}
	w.Normalize("")
	if got := w.TokenWhitelist[0].Name; got != "Ether" {
		t.Fatalf("Name = %q, want %q", got, "Ether")
	}
}

func TestWhitelistValidate(t *testing.T) {
	cases := []struct {
		name string
		doc  WhitelistJSON
		want string
	}{
		{"empty tokens", WhitelistJSON{}, "tokenWhitelist"},
		{"missing symbol", WhitelistJSON{TokenWhitelist: []domain.Token{{Address: "0x1"}}}, "symbol"},
		{"duplicate symbol", WhitelistJSON{TokenWhitelist: []domain.Token{{Symbol: "DAI"}, {Symbol: "dai"}}}, "duplicate"},
		{"blank reviewer", WhitelistJSON{
			TokenWhitelist:    []domain.Token{{Symbol: "ETH"}},
			ReviewerWhitelist: []Address{{Name: "nobody"}},
		}, "reviewerWhitelist[0]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.doc.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
	if !errors.Is(WhitelistJSON{}.Validate(), ErrEmptyTokenWhitelist) {
		t.Fatalf("empty whitelist should wrap ErrEmptyTokenWhitelist")
	}
}

func TestLoadWhitelist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "whitelist.json")
	if err := os.WriteFile(path, []byte(sampleWhitelist), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	w, err := Load(path, "mainnet")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := w.DefaultToken().Name; got != "Mainnet ETH" {
		t.Fatalf("DefaultToken().Name = %q", got)
	}
	dai, ok := w.TokenByAddress("0x6b175474e89094c44da98b954eedeac495271d0f")
	if !ok || dai.Symbol != "DAI" || dai.Decimals != 18 {
		t.Fatalf("TokenByAddress = %+v, %v", dai, ok)
	}
	if pts, ok := w.TokenBySymbol("PTS"); !ok || pts.Decimals != 0 {
		t.Fatalf("declared zero decimals must be kept: %+v, %v", pts, ok)
	}
	if _, ok := w.TokenBySymbol("dai"); !ok {
		t.Fatalf("TokenBySymbol should ignore case")
	}
	if got, ok := w.Resolve(domain.Token{Symbol: "ETH", Address: "0xunknown"}); !ok || got.Symbol != "ETH" {
		t.Fatalf("Resolve fallback to symbol failed: %+v %v", got, ok)
	}
	if !w.IsReviewer("0xabc") || w.IsReviewer("0xdef") {
		t.Fatalf("IsReviewer mismatch")
	}
	if !w.IsDelegate("0xDef") {
		t.Fatalf("IsDelegate should match trimmed, case-insensitive address")
	}
	if w.IsProjectOwner("") {
		t.Fatalf("empty address must never be whitelisted")
	}
}

func TestWhitelistTokensIsCopy(t *testing.T) {
	w, err := Parse([]byte(sampleWhitelist), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tokens := w.Tokens()
	tokens[0].Symbol = "XXX"
	if w.DefaultToken().Symbol != "ETH" {
		t.Fatalf("whitelist mutated through Tokens()")
	}
}

func TestParseRejectsBadJSON(t *testing.T) {
	if _, err := Parse([]byte("{"), ""); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json"), ""); err == nil {
		t.Fatalf("expected read error")
	}
}
