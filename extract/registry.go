package extract

import "fmt"

var priceExtractors = map[string]PriceExtractor{
	"cottonchina": CottonChina{},
	"mysteel":     MySteel{},
}

var newsExtractors = map[string]NewsExtractor{
	"cncotton": CNCotton{},
}

// PricesFor returns the price extractor registered for the source name.
func PricesFor(name string) (PriceExtractor, error) {
	ex, ok := priceExtractors[name]
	if !ok {
		return nil, fmt.Errorf("extract: no price extractor for source %q", name)
	}
	return ex, nil
}

// NewsFor returns the news extractor registered for the source name.
func NewsFor(name string) (NewsExtractor, error) {
	ex, ok := newsExtractors[name]
	if !ok {
		return nil, fmt.Errorf("extract: no news extractor for source %q", name)
	}
	return ex, nil
}
