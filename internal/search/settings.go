// Package search builds the static client-side search index: per-document
// token weights, document-frequency pruning, TF-IDF-like scoring, and the
// JSON artifacts plus JS bundle the browser client consumes.
package search

import (
	"git.home.luguber.info/inful/sitegen/internal/config"
)

// IndexVersion tags the JSON artifacts so a future client can detect format
// drift.
const IndexVersion = 1

const (
	defaultOutputDir = "assets/search"
	defaultPagePath  = "search/index.html"

	excerptLimit = 200
)

// Settings are the validated knobs for index construction.
type Settings struct {
	MaxTermsPerDoc    int
	MinTokenLen       int
	DropDFRatio       float64
	DropDFMin         int
	WeightBody        float64
	WeightTitle       float64
	WeightTags        float64
	NormalizeByDocLen bool
}

// SettingsFromConfig clamps raw configuration values into valid ranges:
// max_terms_per_doc and min_token_len to at least 1, drop_df_ratio to [0,1],
// drop_df_min to at least 0. Weights pass through unclamped.
func SettingsFromConfig(cfg config.SearchConfig) Settings {
	ratio := cfg.DropDFRatio
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return Settings{
		MaxTermsPerDoc:    max(1, cfg.MaxTermsPerDoc),
		MinTokenLen:       max(1, cfg.MinTokenLen),
		DropDFRatio:       ratio,
		DropDFMin:         max(0, cfg.DropDFMin),
		WeightBody:        cfg.WeightBody,
		WeightTitle:       cfg.WeightTitle,
		WeightTags:        cfg.WeightTags,
		NormalizeByDocLen: cfg.NormalizeByDocLen,
	}
}

// ShouldDropToken applies the document-frequency pruning rules: tokens with
// zero df are dropped only when a minimum df is configured, tokens at or
// below the minimum are dropped, tokens present in every document are
// dropped, and tokens whose df ratio reaches drop_df_ratio are dropped.
func ShouldDropToken(df, docCount int, s Settings) bool {
	if df <= 0 {
		return s.DropDFMin > 0
	}
	if docCount <= 0 {
		return true
	}
	if df <= s.DropDFMin {
		return true
	}
	if df == docCount {
		return true
	}
	return float64(df)/float64(docCount) >= s.DropDFRatio
}
