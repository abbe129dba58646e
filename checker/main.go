// Command checker fetches a global chart from a running API and checks that
// the daily series has no gaps and the weekly buckets add up to it.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/emiswap/info-api/models"
	"github.com/emiswap/info-api/timeseries"
	"github.com/kelseyhightower/envconfig"
)

type settings struct {
	URL     string `envconfig:"URL" default:"http://localhost:8080"`
	Network string `envconfig:"NETWORK" default:"main"`
	Window  string `envconfig:"WINDOW" default:"all"`
}

func main() {
	var s settings
	if err := envconfig.Process("checker", &s); err != nil {
		log.Fatalln("bad settings:", err)
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%v/%v/global/chart", s.URL, s.Network), nil)
	if err != nil {
		log.Fatalln("failure making chart req:", err)
	}
	q := req.URL.Query()
	q.Set("window", s.Window)
	req.URL.RawQuery = q.Encode()
	resp, err := http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != 200 {
		log.Fatalln("failure getting chart:", resp, err)
	}
	defer resp.Body.Close()

	var chart models.Chart
	err = json.NewDecoder(resp.Body).Decode(&chart)
	if err != nil {
		log.Fatalln("error decoding chart", err)
	}

	problems := check(&chart)
	for _, p := range problems {
		fmt.Println(p)
	}
	fmt.Println("days:", len(chart.Daily), "weeks:", len(chart.Weekly), "problems:", len(problems))
	if len(problems) > 0 {
		os.Exit(1)
	}
}

// check returns one line per broken property
func check(c *models.Chart) []string {
	var ret []string
	var daily, weekly float64
	for i, p := range c.Daily {
		daily += p.VolumeUSD
		if i == 0 {
			continue
		}
		if gap := p.Date - c.Daily[i-1].Date; gap != timeseries.OneDay {
			ret = append(ret, fmt.Sprintf("gap of %vs before %v", gap, time.Unix(p.Date, 0).UTC().Format("2006-01-02")))
		}
	}

	prevWeek := -1
	for _, w := range c.Weekly {
		weekly += w.WeeklyVolumeUSD
		week := timeseries.WeekOfYear(time.Unix(w.Date, 0))
		if week == prevWeek {
			ret = append(ret, fmt.Sprintf("week %v bucketed twice", week))
		}
		prevWeek = week
	}

	if len(c.Weekly) > 0 && math.Abs(daily-weekly) > 1e-6*math.Max(1, math.Abs(daily)) {
		ret = append(ret, fmt.Sprintf("weekly volume %v does not match daily volume %v", weekly, daily))
	}
	return ret
}
