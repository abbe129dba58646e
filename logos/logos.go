// Package logos finds a working logo image for a token
package logos

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gochain/gochain/v4/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/treeder/gcputils"
	"github.com/treeder/gotils/v2"
)

// Resolver tries each url template in order. URLs that answered with an
// error status are remembered and skipped, as are tokens already resolved.
type Resolver struct {
	templates   []string
	placeholder string
	hc          *http.Client

	bad      *lru.Cache
	resolved *lru.Cache
}

func NewResolver(ctx context.Context, templates []string, placeholder string, size int, hc *http.Client) (*Resolver, error) {
	bad, err := lru.New(size)
	if err != nil {
		return nil, gotils.C(ctx).Errorf("error on lru.New: %v", err)
	}
	resolved, err := lru.New(size)
	if err != nil {
		return nil, gotils.C(ctx).Errorf("error on lru.New: %v", err)
	}
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Resolver{
		templates:   templates,
		placeholder: placeholder,
		hc:          hc,
		bad:         bad,
		resolved:    resolved,
	}, nil
}

// URLs returns the candidate urls for a token, or just the placeholder for
// anything that is not an address
func (r *Resolver) URLs(address string) []string {
	if !common.IsHexAddress(address) {
		return []string{r.placeholder}
	}
	checksummed := common.HexToAddress(address).Hex()
	rep := strings.NewReplacer("{address}", checksummed, "{lowerAddress}", strings.ToLower(checksummed))

	ret := make([]string, 0, len(r.templates))
	for _, t := range r.templates {
		ret = append(ret, rep.Replace(t))
	}
	return ret
}

// Resolve returns the first candidate that answers a HEAD with 2xx, or the
// placeholder when none do
func (r *Resolver) Resolve(ctx context.Context, address string) string {
	address = strings.ToLower(address)
	if v, ok := r.resolved.Get(address); ok {
		return v.(string)
	}
	for _, u := range r.URLs(address) {
		if u == r.placeholder {
			return u
		}
		if r.bad.Contains(u) {
			continue
		}
		ok, err := r.check(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return r.placeholder
			}
			// only a definite answer is remembered
			continue
		}
		if ok {
			r.resolved.Add(address, u)
			return u
		}
		r.bad.Add(u, true)
	}
	return r.placeholder
}

// check sends a HEAD to u. An error means there was no answer.
func (r *Resolver) check(ctx context.Context, u string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false, err
	}
	resp, err := r.hc.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			gcputils.Error().Printf("error checking logo %v: %v", u, err)
		}
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
