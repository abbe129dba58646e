// Package state keeps what has been fetched for one network in memory. All
// changes go through Reduce, a pure function of the old state and an action.
package state

import (
	"fmt"
	"strings"
	"sync"

	"github.com/emiswap/info-api/models"
)

type ActionType int

const (
	Update ActionType = iota + 1
	UpdateTxns
	UpdateChart
	UpdateEthPrice
	UpdateAllPairs
	UpdateAllTokens
	UpdateToken
	UpdateTopTokens
	UpdateTokenTxns
	UpdateTokenChart
	UpdateTokenPairs
	UpdateTopPairs
	UpdatePair
	UpdatePairChart
	Reset
)

var actionNames = map[ActionType]string{
	Update:           "UPDATE",
	UpdateTxns:       "UPDATE_TXNS",
	UpdateChart:      "UPDATE_CHART",
	UpdateEthPrice:   "UPDATE_ETH_PRICE",
	UpdateAllPairs:   "UPDATE_ALL_PAIRS",
	UpdateAllTokens:  "UPDATE_ALL_TOKENS",
	UpdateToken:      "UPDATE_TOKEN",
	UpdateTopTokens:  "UPDATE_TOP_TOKENS",
	UpdateTokenTxns:  "UPDATE_TOKEN_TXNS",
	UpdateTokenChart: "UPDATE_TOKEN_CHART",
	UpdateTokenPairs: "UPDATE_TOKEN_PAIRS",
	UpdateTopPairs:   "UPDATE_TOP_PAIRS",
	UpdatePair:       "UPDATE_PAIR",
	UpdatePairChart:  "UPDATE_PAIR_CHART",
	Reset:            "RESET",
}

func (a ActionType) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("ActionType(%d)", int(a))
}

// Chart is the global chart plus the oldest start it was fetched from
type Chart struct {
	Daily         []models.DailyDataPoint
	Weekly        []models.WeeklyBucket
	OldestFetched int64
}

type TokenState struct {
	Data  *models.TokenStats
	Txns  *models.Transactions
	Chart []models.DailyDataPoint
	Pairs []string
}

type PairState struct {
	Data  *models.PairStats
	Chart []models.DailyDataPoint
}

// State is never mutated in place. Reduce copies any map it writes to.
type State struct {
	Global    *models.GlobalStats
	Txns      *models.Transactions
	Chart     *Chart
	EthPrice  *models.EthPrice
	AllPairs  []*models.PairRef
	AllTokens []*models.TokenRef

	// TopTokens and TopPairs hold ids in listing order
	TopTokens []string
	TopPairs  []string

	Tokens map[string]*TokenState
	Pairs  map[string]*PairState
}

// Action carries the payload for one transition, only the fields its Type
// uses are read
type Action struct {
	Type    ActionType
	Address string

	Global    *models.GlobalStats
	Txns      *models.Transactions
	Chart     *Chart
	EthPrice  *models.EthPrice
	AllPairs  []*models.PairRef
	AllTokens []*models.TokenRef
	Token     *models.TokenStats
	Tokens    []*models.TokenStats
	Pair      *models.PairStats
	PairList  []*models.PairStats
	Daily     []models.DailyDataPoint
	PairIDs   []string
}

func copyTokens(m map[string]*TokenState) map[string]*TokenState {
	ret := make(map[string]*TokenState, len(m)+1)
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

func copyPairs(m map[string]*PairState) map[string]*PairState {
	ret := make(map[string]*PairState, len(m)+1)
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

// withToken returns s with the token at address replaced by f applied to a
// copy of the current entry
func (s State) withToken(address string, f func(t *TokenState)) State {
	tokens := copyTokens(s.Tokens)
	t := &TokenState{}
	if cur := tokens[address]; cur != nil {
		*t = *cur
	}
	f(t)
	tokens[address] = t
	s.Tokens = tokens
	return s
}

func (s State) withPair(address string, f func(p *PairState)) State {
	pairs := copyPairs(s.Pairs)
	p := &PairState{}
	if cur := pairs[address]; cur != nil {
		*p = *cur
	}
	f(p)
	pairs[address] = p
	s.Pairs = pairs
	return s
}

func needsAddress(t ActionType) bool {
	switch t {
	case UpdateToken, UpdateTokenTxns, UpdateTokenChart, UpdateTokenPairs, UpdatePair, UpdatePairChart:
		return true
	}
	return false
}

// Reduce applies a to s. Unknown action types and address keyed actions
// without an address are errors, s is returned unchanged with them.
func Reduce(s State, a Action) (State, error) {
	addr := strings.ToLower(a.Address)
	if needsAddress(a.Type) && addr == "" {
		return s, fmt.Errorf("action %v needs an address", a.Type)
	}

	switch a.Type {
	case Update:
		s.Global = a.Global
	case UpdateTxns:
		s.Txns = a.Txns
	case UpdateChart:
		s.Chart = a.Chart
	case UpdateEthPrice:
		s.EthPrice = a.EthPrice
	case UpdateAllPairs:
		s.AllPairs = a.AllPairs
	case UpdateAllTokens:
		s.AllTokens = a.AllTokens
	case UpdateToken:
		s = s.withToken(addr, func(t *TokenState) { t.Data = a.Token })
	case UpdateTopTokens:
		tokens := copyTokens(s.Tokens)
		ids := make([]string, 0, len(a.Tokens))
		for _, tok := range a.Tokens {
			id := strings.ToLower(tok.ID)
			t := &TokenState{}
			if cur := tokens[id]; cur != nil {
				*t = *cur
			}
			t.Data = tok
			tokens[id] = t
			ids = append(ids, id)
		}
		s.Tokens = tokens
		s.TopTokens = ids
	case UpdateTokenTxns:
		s = s.withToken(addr, func(t *TokenState) { t.Txns = a.Txns })
	case UpdateTokenChart:
		s = s.withToken(addr, func(t *TokenState) { t.Chart = a.Daily })
	case UpdateTokenPairs:
		s = s.withToken(addr, func(t *TokenState) { t.Pairs = a.PairIDs })
	case UpdateTopPairs:
		pairs := copyPairs(s.Pairs)
		ids := make([]string, 0, len(a.PairList))
		for _, ps := range a.PairList {
			id := strings.ToLower(ps.ID)
			p := &PairState{}
			if cur := pairs[id]; cur != nil {
				*p = *cur
			}
			p.Data = ps
			pairs[id] = p
			ids = append(ids, id)
		}
		s.Pairs = pairs
		s.TopPairs = ids
	case UpdatePair:
		s = s.withPair(addr, func(p *PairState) { p.Data = a.Pair })
	case UpdatePairChart:
		s = s.withPair(addr, func(p *PairState) { p.Chart = a.Daily })
	case Reset:
		return State{}, nil
	default:
		return s, fmt.Errorf("unknown action type %v", a.Type)
	}
	return s, nil
}

// Token returns the state for one token, nil if nothing was fetched
func (s State) Token(address string) *TokenState {
	return s.Tokens[strings.ToLower(address)]
}

// Pair returns the state for one pair, nil if nothing was fetched
func (s State) Pair(address string) *PairState {
	return s.Pairs[strings.ToLower(address)]
}

// Store serializes dispatches. Readers get a snapshot that later dispatches
// never modify.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns, err := Reduce(s.state, a)
	if err != nil {
		return err
	}
	s.state = ns
	return nil
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
