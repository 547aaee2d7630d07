package extract

import "testing"

func TestRegistryLookups(t *testing.T) {
	if ex, err := PricesFor("cottonchina"); err != nil || ex.Name() != "cottonchina" {
		t.Errorf("PricesFor(cottonchina): %v", err)
	}
	if ex, err := PricesFor("mysteel"); err != nil || ex.Name() != "mysteel" {
		t.Errorf("PricesFor(mysteel): %v", err)
	}
	if ex, err := NewsFor("cncotton"); err != nil || ex.Name() != "cncotton" {
		t.Errorf("NewsFor(cncotton): %v", err)
	}

	if _, err := PricesFor("cncotton"); err == nil {
		t.Error("news-only source must not resolve as a price extractor")
	}
	if _, err := NewsFor("nosuch"); err == nil {
		t.Error("unknown source should error")
	}
}
