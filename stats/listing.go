package stats

import (
	"errors"
	"sort"
	"strings"

	"github.com/emiswap/info-api/models"
)

// ErrUnknownSort is returned for a sort field that isn't listed below
var ErrUnknownSort = errors.New("unknown sort field")

var tokenFields = map[string]func(*models.TokenStats) float64{
	"price":           func(t *models.TokenStats) float64 { return t.PriceUSD },
	"priceChange":     func(t *models.TokenStats) float64 { return t.PriceChangeUSD },
	"liquidity":       func(t *models.TokenStats) float64 { return t.TotalLiquidityUSD },
	"liquidityChange": func(t *models.TokenStats) float64 { return t.LiquidityChangeUSD },
	"volume":          func(t *models.TokenStats) float64 { return t.OneDayVolumeUSD },
	"volumeChange":    func(t *models.TokenStats) float64 { return t.VolumeChangeUSD },
	"txns":            func(t *models.TokenStats) float64 { return t.OneDayTxns },
}

var pairFields = map[string]func(*models.PairStats) float64{
	"liquidity":       func(p *models.PairStats) float64 { return p.ReserveUSD },
	"liquidityChange": func(p *models.PairStats) float64 { return p.LiquidityChangeUSD },
	"volume":          func(p *models.PairStats) float64 { return p.OneDayVolumeUSD },
	"volumeChange":    func(p *models.PairStats) float64 { return p.VolumeChangeUSD },
	"weekVolume":      func(p *models.PairStats) float64 { return p.OneWeekVolumeUSD },
	"fees":            func(p *models.PairStats) float64 { return p.OneDayFeesUSD },
	"txns":            func(p *models.PairStats) float64 { return p.OneDayTxns },
}

// SortTokens returns a sorted copy. Besides the numeric fields, "name" and
// "symbol" sort alphabetically. An empty field keeps the input order.
func SortTokens(tokens []*models.TokenStats, field string, desc bool) ([]*models.TokenStats, error) {
	ret := make([]*models.TokenStats, 0, len(tokens))
	for _, t := range tokens {
		if t != nil {
			ret = append(ret, t)
		}
	}
	if field == "" {
		return ret, nil
	}

	var less func(a, b *models.TokenStats) bool
	switch field {
	case "name":
		less = func(a, b *models.TokenStats) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case "symbol":
		less = func(a, b *models.TokenStats) bool { return strings.ToLower(a.Symbol) < strings.ToLower(b.Symbol) }
	default:
		v, ok := tokenFields[field]
		if !ok {
			return nil, ErrUnknownSort
		}
		less = func(a, b *models.TokenStats) bool { return v(a) < v(b) }
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if desc {
			return less(ret[j], ret[i])
		}
		return less(ret[i], ret[j])
	})
	return ret, nil
}

// SortPairs is SortTokens for pairs, "name" sorts by the symbol pair
func SortPairs(pairs []*models.PairStats, field string, desc bool) ([]*models.PairStats, error) {
	ret := make([]*models.PairStats, 0, len(pairs))
	for _, p := range pairs {
		if p != nil {
			ret = append(ret, p)
		}
	}
	if field == "" {
		return ret, nil
	}

	var less func(a, b *models.PairStats) bool
	if field == "name" {
		name := func(p *models.PairStats) string {
			return strings.ToLower(p.Token0.Symbol + "-" + p.Token1.Symbol)
		}
		less = func(a, b *models.PairStats) bool { return name(a) < name(b) }
	} else {
		v, ok := pairFields[field]
		if !ok {
			return nil, ErrUnknownSort
		}
		less = func(a, b *models.PairStats) bool { return v(a) < v(b) }
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if desc {
			return less(ret[j], ret[i])
		}
		return less(ret[i], ret[j])
	})
	return ret, nil
}

// Paginate returns the [start, end) slice bounds for a 1 based page along
// with the last page number, which is at least 1. Out of range pages are
// clamped.
func Paginate(n, page, perPage int) (start, end, maxPage int) {
	if perPage < 1 {
		perPage = 1
	}
	maxPage = (n + perPage - 1) / perPage
	if maxPage < 1 {
		maxPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	start = (page - 1) * perPage
	end = start + perPage
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end, maxPage
}
