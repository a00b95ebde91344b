// Package e2e drives the HTTP surface end to end with a generated record
// corpus and a set of queries with known right answers.
package e2e

import (
	"fmt"
	"strconv"
)

// CorpusRecord is one record in the e2e corpus.
type CorpusRecord struct {
	PK     string
	Title  string
	Body   string
	Author string
	Views  int
}

// QueryCase is a query whose top results must contain WantPK.
type QueryCase struct {
	Query       string
	WantPK      string
	Description string
}

// Corpus holds the records and query cases for the e2e run.
type Corpus struct {
	Records []CorpusRecord
	Cases   []QueryCase
}

// BuildCorpus generates a corpus where every topic carries a unique signature
// phrase, so each query case has exactly one correct record.
func BuildCorpus() *Corpus {
	topics := []struct {
		title  string
		phrase string
		body   string
	}{
		{"Rooftop Solar", "rooftop photovoltaic panels", "Rooftop photovoltaic panels turn sunlight into household power. Installation costs keep falling."},
		{"Offshore Wind", "offshore turbine farms", "Offshore turbine farms harvest steady ocean winds. Floating platforms reach deeper waters."},
		{"Grid Batteries", "grid scale battery storage", "Grid scale battery storage smooths supply and demand. Lithium and flow chemistries compete."},
		{"Hydro Power", "pumped hydro reservoirs", "Pumped hydro reservoirs store energy as elevated water. They remain the largest storage fleet."},
		{"Geothermal", "geothermal heat wells", "Geothermal heat wells tap the crust's warmth. Enhanced systems fracture hot dry rock."},
		{"Nuclear SMR", "small modular reactors", "Small modular reactors promise factory-built nuclear power. Licensing is the long pole."},
		{"Hydrogen Fuel", "green hydrogen electrolysis", "Green hydrogen electrolysis splits water with renewable power. Storage and transport stay hard."},
		{"Tidal Energy", "tidal stream generators", "Tidal stream generators spin in predictable currents. Salt water punishes the hardware."},
		{"Biomass Plants", "biomass pellet boilers", "Biomass pellet boilers burn compressed wood waste. Carbon accounting is contested."},
		{"Carbon Capture", "direct air capture", "Direct air capture pulls carbon dioxide from ambient air. Energy cost per ton is the hurdle."},
		{"Smart Meters", "smart meter telemetry", "Smart meter telemetry reports consumption in near real time. Utilities price by the hour."},
		{"Heat Pumps", "air source heat pumps", "Air source heat pumps move warmth instead of making it. Cold climate models keep improving."},
		{"EV Charging", "fast charging stations", "Fast charging stations refill batteries in minutes. Grid connections gate the rollout."},
		{"Microgrids", "islanded microgrid controllers", "Islanded microgrid controllers keep hospitals lit through outages. They resync to the main grid later."},
		{"Demand Response", "demand response aggregators", "Demand response aggregators pay consumers to shed load. Peaks flatten without new plants."},
		{"Transmission", "high voltage interconnectors", "High voltage interconnectors move power between regions. Permitting takes a decade."},
		{"Solar Thermal", "concentrated solar towers", "Concentrated solar towers focus mirrors on molten salt. Heat persists after sunset."},
		{"Wave Power", "oscillating wave converters", "Oscillating wave converters ride swells for energy. Survivability in storms is unproven."},
		{"Fusion Research", "tokamak plasma confinement", "Tokamak plasma confinement chases net energy gain. Magnets keep getting stronger."},
		{"Efficiency", "building envelope insulation", "Building envelope insulation is the cheapest megawatt. Retrofits lag new construction."},
	}

	authors := []string{"alice", "bob", "carol"}
	c := &Corpus{}
	for i, topic := range topics {
		pk := strconv.Itoa(i + 1)
		c.Records = append(c.Records, CorpusRecord{
			PK:     pk,
			Title:  topic.title,
			Body:   fmt.Sprintf("%s %s", topic.body, topic.phrase),
			Author: authors[i%len(authors)],
			Views:  (i + 1) * 10,
		})
		c.Cases = append(c.Cases, QueryCase{
			Query:       topic.phrase,
			WantPK:      pk,
			Description: topic.title,
		})
	}
	return c
}
