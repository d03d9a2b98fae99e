package images

import "go.uber.org/zap"

// ChainConfig carries what the optional strategies need. Strategies whose
// requirements are missing are left out of the chain.
type ChainConfig struct {
	Wiki            Wiki
	GoogleKey       string
	GoogleEngineID  string
	Generator       ImageGenerator
	GenerateEnabled bool
	StockURL        string
	Log             *zap.Logger
}

// Chain returns the strategies in resolution order.
func Chain(cfg ChainConfig) []Strategy {
	chain := []Strategy{TaggedImage{}}
	if cfg.GoogleKey != "" && cfg.GoogleEngineID != "" {
		chain = append(chain, NewGoogleImageSearch(cfg.GoogleKey, cfg.GoogleEngineID))
	}
	if cfg.Wiki != nil {
		chain = append(chain,
			CrossReference{Wiki: cfg.Wiki, Log: cfg.Log},
			ExactTitle{Wiki: cfg.Wiki},
			TitleWithLocation{Wiki: cfg.Wiki},
			CommonsSearch{Wiki: cfg.Wiki},
		)
	}
	if cfg.GenerateEnabled && cfg.Generator != nil {
		chain = append(chain, Generated{Generator: cfg.Generator})
	}
	if cfg.StockURL != "" {
		chain = append(chain, Stock{BaseURL: cfg.StockURL})
	}
	return chain
}
