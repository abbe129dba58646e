package backend

import (
	"context"
	"time"

	"github.com/emiswap/info-api/models"
	"github.com/shopspring/decimal"
)

// StatsBackend defines methods for accessing emiswap entities. A block of 0
// means the latest indexed block, from is a unix timestamp and only rows
// strictly after it are returned.
type StatsBackend interface {
	// GetFactory returns the exchange wide counters at block
	GetFactory(ctx context.Context, block int64) (*models.Factory, error)

	// GetFactoryDayDatas returns the exchange day rows after from, ascending
	GetFactoryDayDatas(ctx context.Context, from int64) ([]*models.DayData, error)

	// GetEthPrice returns the native token price in USD at block
	GetEthPrice(ctx context.Context, block int64) (decimal.Decimal, error)

	// GetTopTokens returns the most traded tokens at block
	GetTopTokens(ctx context.Context, block int64) ([]*models.Token, error)

	// GetToken returns gotils.ErrNotFound if the token did not exist at block
	GetToken(ctx context.Context, address string, block int64) (*models.Token, error)

	// GetTokenPairs returns the ids of the pairs a token trades in
	GetTokenPairs(ctx context.Context, address string) ([]string, error)

	GetTokenDayDatas(ctx context.Context, address string, from int64) ([]*models.DayData, error)

	// GetTopPairs returns the deepest pairs at block
	GetTopPairs(ctx context.Context, block int64) ([]*models.Pair, error)

	// GetPair returns gotils.ErrNotFound if the pair did not exist at block
	GetPair(ctx context.Context, address string, block int64) (*models.Pair, error)

	GetPairDayDatas(ctx context.Context, address string, from int64) ([]*models.DayData, error)

	// GetAllPairs and GetAllTokens page through the whole listing
	GetAllPairs(ctx context.Context) ([]*models.PairRef, error)
	GetAllTokens(ctx context.Context) ([]*models.TokenRef, error)

	// GetTransactions returns recent mints, burns and swaps in the given
	// pairs, or across the exchange if pairs is empty
	GetTransactions(ctx context.Context, pairs []string) (*models.Transactions, error)

	// GetBlocks returns the first block at or after each timestamp, 0 when a
	// timestamp is past the indexed head
	GetBlocks(ctx context.Context, ts []time.Time) ([]int64, error)
}
