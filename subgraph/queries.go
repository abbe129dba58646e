package subgraph

import (
	"fmt"
	"strings"
	"time"
)

const tokenFields = `
  id
  name
  symbol
  derivedETH
  derivedUSD
  tradeVolume
  tradeVolumeUSD
  totalLiquidity
  totalLiquidityUSD
  txCount
`

const pairFields = `
  id
  token0 { id symbol name }
  token1 { id symbol name }
  reserve0
  reserve1
  reserveUSD
  reserveETH
  token0Price
  token1Price
  volumeUSD
  txCount
`

const txnFields = `
  mints {
    transaction { id timestamp }
    pair { id token0 { id symbol } token1 { id symbol } }
    to
    liquidity
    amount0
    amount1
  }
  burns {
    transaction { id timestamp }
    pair { id token0 { id symbol } token1 { id symbol } }
    sender
    liquidity
    amount0
    amount1
  }
  swaps {
    transaction { id timestamp }
    pair { id token0 { id symbol } token1 { id symbol } }
    srcAmount
    destAmount
    to
  }
`

var (
	FactoryQuery = `
query factory($id: ID!, $block: Block_height) {
  emiswapFactories(where: { id: $id }, block: $block) {
    id
    pairCount
    totalVolumeUSD
    totalVolumeETH
    totalLiquidityUSD
    totalLiquidityETH
    txCount
  }
}`

	FactoryDayDatasQuery = `
query factoryDayDatas($from: Int!, $skip: Int!) {
  emiswapDayDatas(first: 1000, skip: $skip, where: { date_gt: $from }, orderBy: date, orderDirection: asc) {
    date
    dailyVolumeUSD
    totalLiquidityUSD
    mostLiquidTokens { id }
  }
}`

	EthPriceQuery = `
query ethPrice($block: Block_height) {
  bundles(where: { id: "1" }, block: $block) {
    id
    ethPrice
  }
}`

	TopTokensQuery = `
query topTokens($block: Block_height) {
  tokens(first: 200, orderBy: tradeVolumeUSD, orderDirection: desc, block: $block) {` + tokenFields + `}
}`

	TokenQuery = `
query token($id: ID!, $block: Block_height) {
  tokens(where: { id: $id }, block: $block) {` + tokenFields + `}
}`

	TokenPairsQuery = `
query tokenPairs($id: String!) {
  pairs0: pairs(where: { token0: $id }, first: 50, orderBy: reserveUSD, orderDirection: desc) { id }
  pairs1: pairs(where: { token1: $id }, first: 50, orderBy: reserveUSD, orderDirection: desc) { id }
}`

	TokenDayDatasQuery = `
query tokenDayDatas($token: String!, $from: Int!, $skip: Int!) {
  tokenDayDatas(first: 1000, skip: $skip, where: { token: $token, date_gt: $from }, orderBy: date, orderDirection: asc) {
    date
    dailyVolumeUSD
    totalLiquidityUSD
    priceUSD
    mostLiquidPairs { id }
  }
}`

	TopPairsQuery = `
query topPairs($block: Block_height) {
  pairs(first: 300, orderBy: reserveUSD, orderDirection: desc, block: $block) {` + pairFields + `}
}`

	PairQuery = `
query pair($id: ID!, $block: Block_height) {
  pairs(where: { id: $id }, block: $block) {` + pairFields + `}
}`

	// reserveUSD is aliased so pair days decode like the other day datas
	PairDayDatasQuery = `
query pairDayDatas($pair: String!, $from: Int!, $skip: Int!) {
  pairDayDatas(first: 1000, skip: $skip, where: { pairAddress: $pair, date_gt: $from }, orderBy: date, orderDirection: asc) {
    date
    dailyVolumeUSD
    totalLiquidityUSD: reserveUSD
  }
}`

	AllPairsQuery = `
query allPairs($skip: Int!) {
  pairs(first: 1000, skip: $skip, orderBy: trackedReserveETH, orderDirection: desc) {
    id
    token0 { id symbol name }
    token1 { id symbol name }
  }
}`

	AllTokensQuery = `
query allTokens($skip: Int!) {
  tokens(first: 1000, skip: $skip) {
    id
    name
    symbol
  }
}`

	GlobalTransactionsQuery = `
query transactions {
  transactions(first: 100, orderBy: timestamp, orderDirection: desc) {` + txnFields + `}
}`

	FilteredTransactionsQuery = `
query filteredTransactions($allPairs: [String!]) {
  mints(first: 20, where: { pair_in: $allPairs }, orderBy: timestamp, orderDirection: desc) {
    transaction { id timestamp }
    pair { id token0 { id symbol } token1 { id symbol } }
    to
    liquidity
    amount0
    amount1
  }
  burns(first: 20, where: { pair_in: $allPairs }, orderBy: timestamp, orderDirection: desc) {
    transaction { id timestamp }
    pair { id token0 { id symbol } token1 { id symbol } }
    sender
    liquidity
    amount0
    amount1
  }
  swaps(first: 30, where: { pair_in: $allPairs }, orderBy: timestamp, orderDirection: desc) {
    transaction { id timestamp }
    pair { id token0 { id symbol } token1 { id symbol } }
    srcAmount
    destAmount
    to
  }
}`
)

// blockWindow is how far past a timestamp a block may be and still count
const blockWindow = 600

// BlockAlias is the result key for the block at t in BlocksQuery
func BlockAlias(t time.Time) string {
	return fmt.Sprintf("t%d", t.Unix())
}

// BlocksQuery builds one aliased blocks lookup per timestamp, each returning
// the first block in the 10 minutes after it.
func BlocksQuery(ts []time.Time) string {
	var sb strings.Builder
	sb.WriteString("query blocks {")
	for _, t := range ts {
		u := t.Unix()
		fmt.Fprintf(&sb, "\n  %v: blocks(first: 1, orderBy: timestamp, orderDirection: asc, where: { timestamp_gt: %d, timestamp_lt: %d }) { number }",
			BlockAlias(t), u, u+blockWindow)
	}
	sb.WriteString("\n}")
	return sb.String()
}
