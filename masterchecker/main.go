// Command masterchecker compares the one day volume summed over every pair
// and every token with the exchange's global one day volume.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/emiswap/info-api/models"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type settings struct {
	URL     string `envconfig:"URL" default:"http://localhost:8080"`
	Network string `envconfig:"NETWORK" default:"main"`
}

type page struct {
	Tokens  []*models.TokenStats `json:"tokens"`
	Pairs   []*models.PairStats  `json:"pairs"`
	MaxPage int                  `json:"maxPage"`
}

func get(url string, q map[string]string, out interface{}) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		log.Fatalln("failure making req:", url, err)
	}
	qs := req.URL.Query()
	for k, v := range q {
		qs.Set(k, v)
	}
	req.URL.RawQuery = qs.Encode()
	resp, err := http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != 200 {
		log.Fatalln("failure getting", url, resp, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Fatalln("error decoding", url, err)
	}
}

// pages fetches every page of a listing
func pages(url string) []*page {
	var ret []*page
	for i := 1; ; i++ {
		p := &page{}
		get(url, map[string]string{"page": strconv.Itoa(i), "per_page": "500"}, p)
		ret = append(ret, p)
		if i >= p.MaxPage {
			return ret
		}
	}
}

func main() {
	var s settings
	if err := envconfig.Process("checker", &s); err != nil {
		log.Fatalln("bad settings:", err)
	}
	url := fmt.Sprintf("%v/%v", s.URL, s.Network)

	var pairVol, tokenVol decimal.Decimal
	for _, p := range pages(url + "/pairs") {
		for _, ps := range p.Pairs {
			pairVol = pairVol.Add(decimal.NewFromFloat(ps.OneDayVolumeUSD))
		}
	}
	for _, p := range pages(url + "/tokens") {
		for _, t := range p.Tokens {
			// hokey, but intentional to check something
			fmt.Println(t.Symbol, t.OneDayVolumeUSD)
			tokenVol = tokenVol.Add(decimal.NewFromFloat(t.OneDayVolumeUSD))
		}
	}

	var global models.GlobalStats
	get(url+"/global", nil, &global)

	fmt.Println("pairVol:", pairVol, "tokenVol:", tokenVol, "api:", global.OneDayVolumeUSD)
}
