package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emiswap/info-api/config"
	"github.com/emiswap/info-api/logos"
	"github.com/emiswap/info-api/metrics"
	"github.com/emiswap/info-api/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/treeder/gcputils"
	"github.com/treeder/gotils"
)

type network struct {
	stats *stats.Service
	logos *logos.Resolver
}

type server struct {
	cfg      *config.Config
	networks map[string]*network
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("welcome"))
	})
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/networks", errorHandler(s.getNetworks))
	r.Route("/{network}", func(r chi.Router) {
		r.Use(s.networkCtx)
		r.Get("/eth-price", errorHandler(getEthPrice))
		r.Route("/global", func(r chi.Router) {
			r.Get("/", errorHandler(getGlobal))
			r.Get("/chart", errorHandler(s.getGlobalChart))
			r.Get("/transactions", errorHandler(getGlobalTransactions))
		})
		r.Route("/tokens", func(r chi.Router) {
			r.Get("/", errorHandler(s.getTokens))
			r.Get("/all", errorHandler(getAllTokens))
			r.Route("/{address}", func(r chi.Router) {
				r.Use(s.addressCtx)
				r.Get("/", errorHandler(getToken))
				r.Get("/chart", errorHandler(getTokenChart))
				r.Get("/transactions", errorHandler(getTokenTransactions))
				r.Get("/logo", errorHandler(getTokenLogo))
			})
		})
		r.Route("/pairs", func(r chi.Router) {
			r.Get("/", errorHandler(s.getPairs))
			r.Get("/all", errorHandler(getAllPairs))
			r.Route("/{address}", func(r chi.Router) {
				r.Use(s.addressCtx)
				r.Get("/", errorHandler(getPair))
				r.Get("/chart", errorHandler(getPairChart))
			})
		})
	})

	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}).Handler(r)
}

// apiError carries a status code for errors the caller caused
type apiError struct {
	code int
	msg  string
}

func (e *apiError) Error() string { return e.msg }
func (e *apiError) Code() int     { return e.code }

func badRequest(msg string) error {
	return &apiError{code: http.StatusBadRequest, msg: msg}
}

type myHandlerFunc func(w http.ResponseWriter, r *http.Request) error

func errorHandler(h myHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		var ae *apiError
		var he *gotils.HttpError
		switch {
		case errors.Is(err, gotils.ErrNotFound):
			gotils.WriteError(w, http.StatusNotFound, err)
		case errors.As(err, &ae):
			gotils.WriteError(w, ae.Code(), ae)
		case errors.As(err, &he):
			gcputils.Error().Printf("%v", err)
			gotils.WriteError(w, he.Code(), he)
		default:
			gcputils.Error().Printf("%v", err) // to cloud logging
			gotils.WriteError(w, http.StatusInternalServerError, err)
		}
	}
}

type ctxKey int

const (
	networkKey ctxKey = iota
	addressKey
)

func (s *server) networkCtx(next http.Handler) http.Handler {
	return errorHandler(func(w http.ResponseWriter, r *http.Request) error {
		name := strings.ToLower(chi.URLParam(r, "network"))
		nw, ok := s.networks[name]
		if !ok {
			return gotils.ErrNotFound
		}
		ctx := gotils.With(r.Context(), "network", name)
		ctx = context.WithValue(ctx, networkKey, nw)
		next.ServeHTTP(w, r.WithContext(ctx))
		return nil
	})
}

func (s *server) addressCtx(next http.Handler) http.Handler {
	return errorHandler(func(w http.ResponseWriter, r *http.Request) error {
		address := chi.URLParam(r, "address")
		if err := s.validate.Var(address, "required,eth_addr"); err != nil {
			return badRequest("invalid address: " + address)
		}
		ctx := context.WithValue(r.Context(), addressKey, strings.ToLower(address))
		next.ServeHTTP(w, r.WithContext(ctx))
		return nil
	})
}

func networkFrom(r *http.Request) *network {
	return r.Context().Value(networkKey).(*network)
}

func addressFrom(r *http.Request) string {
	return r.Context().Value(addressKey).(string)
}

func (s *server) getNetworks(w http.ResponseWriter, r *http.Request) error {
	gotils.WriteObject(w, http.StatusOK, map[string]interface{}{
		"networks": s.cfg.Networks,
	})
	return nil
}

func getEthPrice(w http.ResponseWriter, r *http.Request) error {
	ep, err := networkFrom(r).stats.EthPrice(r.Context())
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, ep)
	return nil
}

func getGlobal(w http.ResponseWriter, r *http.Request) error {
	g, err := networkFrom(r).stats.Global(r.Context())
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, g)
	return nil
}

type chartParams struct {
	Window string `validate:"omitempty,oneof=week month all"`
}

func (s *server) getGlobalChart(w http.ResponseWriter, r *http.Request) error {
	p := chartParams{Window: r.URL.Query().Get("window")}
	if err := s.validate.Struct(p); err != nil {
		return badRequest("window must be one of week, month, all")
	}
	win := stats.WindowAll
	if p.Window != "" {
		win = stats.Window(p.Window)
	}
	c, err := networkFrom(r).stats.GlobalChart(r.Context(), win)
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, c)
	return nil
}

func getGlobalTransactions(w http.ResponseWriter, r *http.Request) error {
	txns, err := networkFrom(r).stats.GlobalTransactions(r.Context())
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, txns)
	return nil
}

type listParams struct {
	Sort    string `validate:"omitempty,alpha"`
	Desc    bool
	Page    int `validate:"gte=1"`
	PerPage int `validate:"gte=1,lte=500"`
}

func (s *server) listParams(r *http.Request) (listParams, error) {
	q := r.URL.Query()
	p := listParams{Sort: q.Get("sort"), Desc: true, Page: 1, PerPage: 10}
	var err error
	if v := q.Get("desc"); v != "" {
		if p.Desc, err = strconv.ParseBool(v); err != nil {
			return p, badRequest("desc must be a boolean")
		}
	}
	if v := q.Get("page"); v != "" {
		if p.Page, err = strconv.Atoi(v); err != nil {
			return p, badRequest("page must be a number")
		}
	}
	if v := q.Get("per_page"); v != "" {
		if p.PerPage, err = strconv.Atoi(v); err != nil {
			return p, badRequest("per_page must be a number")
		}
	}
	if err := s.validate.Struct(p); err != nil {
		return p, badRequest(err.Error())
	}
	return p, nil
}

func (s *server) getTokens(w http.ResponseWriter, r *http.Request) error {
	p, err := s.listParams(r)
	if err != nil {
		return err
	}
	if p.Sort == "" {
		p.Sort = "liquidity"
	}
	tokens, err := networkFrom(r).stats.TopTokens(r.Context())
	if err != nil {
		return err
	}
	sorted, err := stats.SortTokens(tokens, p.Sort, p.Desc)
	if err != nil {
		return badRequest(err.Error() + ": " + p.Sort)
	}
	start, end, maxPage := stats.Paginate(len(sorted), p.Page, p.PerPage)
	gotils.WriteObject(w, http.StatusOK, map[string]interface{}{
		"tokens":  sorted[start:end],
		"page":    min(p.Page, maxPage),
		"maxPage": maxPage,
		"total":   len(sorted),
	})
	return nil
}

func getAllTokens(w http.ResponseWriter, r *http.Request) error {
	tokens, err := networkFrom(r).stats.AllTokens(r.Context())
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
	})
	return nil
}

func getToken(w http.ResponseWriter, r *http.Request) error {
	t, err := networkFrom(r).stats.Token(r.Context(), addressFrom(r))
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, t)
	return nil
}

func getTokenChart(w http.ResponseWriter, r *http.Request) error {
	c, err := networkFrom(r).stats.TokenChart(r.Context(), addressFrom(r))
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, c)
	return nil
}

func getTokenTransactions(w http.ResponseWriter, r *http.Request) error {
	txns, err := networkFrom(r).stats.TokenTransactions(r.Context(), addressFrom(r))
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, txns)
	return nil
}

func getTokenLogo(w http.ResponseWriter, r *http.Request) error {
	u := networkFrom(r).logos.Resolve(r.Context(), addressFrom(r))
	if u == "" {
		return gotils.ErrNotFound
	}
	http.Redirect(w, r, u, http.StatusFound)
	return nil
}

func (s *server) getPairs(w http.ResponseWriter, r *http.Request) error {
	p, err := s.listParams(r)
	if err != nil {
		return err
	}
	if p.Sort == "" {
		p.Sort = "liquidity"
	}
	pairs, err := networkFrom(r).stats.TopPairs(r.Context())
	if err != nil {
		return err
	}
	sorted, err := stats.SortPairs(pairs, p.Sort, p.Desc)
	if err != nil {
		return badRequest(err.Error() + ": " + p.Sort)
	}
	start, end, maxPage := stats.Paginate(len(sorted), p.Page, p.PerPage)
	gotils.WriteObject(w, http.StatusOK, map[string]interface{}{
		"pairs":   sorted[start:end],
		"page":    min(p.Page, maxPage),
		"maxPage": maxPage,
		"total":   len(sorted),
	})
	return nil
}

func getAllPairs(w http.ResponseWriter, r *http.Request) error {
	pairs, err := networkFrom(r).stats.AllPairs(r.Context())
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, map[string]interface{}{
		"pairs": pairs,
	})
	return nil
}

func getPair(w http.ResponseWriter, r *http.Request) error {
	p, err := networkFrom(r).stats.Pair(r.Context(), addressFrom(r))
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, p)
	return nil
}

func getPairChart(w http.ResponseWriter, r *http.Request) error {
	c, err := networkFrom(r).stats.PairChart(r.Context(), addressFrom(r))
	if err != nil {
		return err
	}
	gotils.WriteObject(w, http.StatusOK, c)
	return nil
}
