package wallet

import (
	"strings"
	"testing"
)

func TestNormalizeChecksums(t *testing.T) {
	cases := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}

	for _, want := range cases {
		got, err := Normalize(strings.ToLower(want))
		if err != nil {
			t.Fatalf("normalize %s: %v", want, err)
		}
		if got != want {
			t.Fatalf("normalize %s: got %s", want, got)
		}

		got, err = Normalize("0X" + strings.ToUpper(want[2:]))
		if err != nil {
			t.Fatalf("normalize upper %s: %v", want, err)
		}
		if got != want {
			t.Fatalf("normalize upper %s: got %s", want, got)
		}
	}
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"noPrefix", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{"short", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeA"},
		{"long", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00"},
		{"nonHex", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAeg"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Normalize(tc.address); err == nil {
				t.Fatalf("expected error for %q", tc.address)
			}
		})
	}
}

func TestEqualIgnoresCasing(t *testing.T) {
	checksummed := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	if !Equal(checksummed, strings.ToLower(checksummed)) {
		t.Fatal("expected checksummed and lower-cased forms to match")
	}
	if Equal(checksummed, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359") {
		t.Fatal("expected distinct addresses to differ")
	}
	if Equal(checksummed, "not-an-address") {
		t.Fatal("expected malformed input to compare unequal")
	}
}

func TestNetworks(t *testing.T) {
	networks := NewNetworks([]int64{1, 11155111, 0, -5})

	if !networks.Supports(1) || !networks.Supports(11155111) {
		t.Fatalf("expected configured chains to be supported: %v", networks.IDs())
	}
	if networks.Supports(56) {
		t.Fatal("expected unlisted chain to be unsupported")
	}
	if networks.Supports(0) {
		t.Fatal("expected non-positive ids to be dropped")
	}

	ids := networks.IDs()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 11155111 {
		t.Fatalf("unexpected id list: %v", ids)
	}
}

func TestChainName(t *testing.T) {
	if name := ChainName(1); name != "Ethereum Mainnet" {
		t.Fatalf("unexpected name: %s", name)
	}
	if name := ChainName(424242); name != "chain 424242" {
		t.Fatalf("unexpected fallback name: %s", name)
	}
}
