package tuning

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownStudio     = errors.New("unknown studio")
	ErrUnknownTour       = errors.New("unknown tour size")
)

type Tuning struct {
	MaxWeeks          int     `yaml:"max_weeks"`
	BaseLivingCost    int     `yaml:"base_living_cost"`
	BandmateUpkeep    int     `yaml:"bandmate_upkeep"`
	StreamRatePer1000 float64 `yaml:"stream_rate_per_1000"`
	DealDeliveryWeeks int     `yaml:"deal_delivery_weeks"`

	Thresholds Thresholds `yaml:"thresholds"`
	Triggers   Triggers   `yaml:"triggers"`

	Difficulties map[string]Difficulty `yaml:"difficulties"`
	Deals        map[string]DealTerms  `yaml:"deals"`
	Studios      []Studio              `yaml:"studios"`
	Tours        []TourSize            `yaml:"tours"`
}

type Thresholds struct {
	DeepDebt        int `yaml:"deep_debt"`
	LowGoodwill     int `yaml:"low_goodwill"`
	AddictionDrain  int `yaml:"addiction_drain"`
	BurnoutDrain    int `yaml:"burnout_drain"`
	HypeDecay       int `yaml:"hype_decay"`
	AlgoBoostDecay  int `yaml:"algo_boost_decay"`
	PlaylistDecay   int `yaml:"playlist_decay"`
	ViralWeeks      int `yaml:"viral_weeks"`
	ViralMultiplier int `yaml:"viral_multiplier"`
}

type Triggers struct {
	EventChance    float64 `yaml:"event_chance"`
	ArcStageChance float64 `yaml:"arc_stage_chance"`
	MaxChance      float64 `yaml:"max_chance"`
	MaxActiveArcs  int     `yaml:"max_active_arcs"`
}

type Difficulty struct {
	StartingMoney        int     `yaml:"starting_money"`
	CostMultiplier       float64 `yaml:"cost_multiplier"`
	EventMultiplier      float64 `yaml:"event_multiplier"`
	TemptationMultiplier float64 `yaml:"temptation_multiplier"`
	IncomeMultiplier     float64 `yaml:"income_multiplier"`
}

// DealTerms are the artist's streaming share and the label's cuts elsewhere.
type DealTerms struct {
	StreamingRoyaltyRate float64 `yaml:"streaming_royalty_rate"`
	MerchCutRate         float64 `yaml:"merch_cut_rate"`
	TouringCutRate       float64 `yaml:"touring_cut_rate"`
}

type Studio struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	CostPerWeek     int    `yaml:"cost_per_week"`
	ProductionValue int    `yaml:"production_value"`
	MinWeeks        int    `yaml:"min_weeks"`
}

type TourSize struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Weeks        int    `yaml:"weeks"`
	ShowsPerWeek int    `yaml:"shows_per_week"`
	Capacity     int    `yaml:"capacity"`
	Guarantee    int    `yaml:"guarantee"`
	CostPerWeek  int    `yaml:"cost_per_week"`
	MinFans      int    `yaml:"min_fans"`
	MinMoney     int    `yaml:"min_money"`
	RequiresDeal bool   `yaml:"requires_deal"`
}

func Defaults() Tuning {
	return Tuning{
		MaxWeeks:          520,
		BaseLivingCost:    150,
		BandmateUpkeep:    40,
		StreamRatePer1000: 4,
		DealDeliveryWeeks: 104,
		Thresholds: Thresholds{
			DeepDebt:        -1000,
			LowGoodwill:     10,
			AddictionDrain:  30,
			BurnoutDrain:    70,
			HypeDecay:       2,
			AlgoBoostDecay:  3,
			PlaylistDecay:   1,
			ViralWeeks:      4,
			ViralMultiplier: 5,
		},
		Triggers: Triggers{
			EventChance:    0.30,
			ArcStageChance: 0.35,
			MaxChance:      0.9,
			MaxActiveArcs:  3,
		},
		Difficulties: map[string]Difficulty{
			"easy":   {StartingMoney: 1500, CostMultiplier: 0.75, EventMultiplier: 0.8, TemptationMultiplier: 0.7, IncomeMultiplier: 1.25},
			"normal": {StartingMoney: 800, CostMultiplier: 1, EventMultiplier: 1, TemptationMultiplier: 1, IncomeMultiplier: 1},
			"hard":   {StartingMoney: 300, CostMultiplier: 1.3, EventMultiplier: 1.2, TemptationMultiplier: 1.4, IncomeMultiplier: 0.8},
		},
		Deals: map[string]DealTerms{
			"traditional": {StreamingRoyaltyRate: 0.18},
			"distro":      {StreamingRoyaltyRate: 0.85},
			"360":         {StreamingRoyaltyRate: 0.22, MerchCutRate: 0.30, TouringCutRate: 0.25},
		},
		Studios: []Studio{
			{ID: "home", Name: "Bedroom setup", CostPerWeek: 50, ProductionValue: 0, MinWeeks: 2},
			{ID: "local", Name: "Local studio", CostPerWeek: 400, ProductionValue: 10, MinWeeks: 2},
			{ID: "pro", Name: "Pro studio", CostPerWeek: 1500, ProductionValue: 20, MinWeeks: 3},
		},
		Tours: []TourSize{
			{ID: "regional", Name: "Regional run", Weeks: 2, ShowsPerWeek: 3, Capacity: 150, Guarantee: 150, CostPerWeek: 300, MinFans: 200, MinMoney: 300},
			{ID: "national", Name: "National tour", Weeks: 4, ShowsPerWeek: 4, Capacity: 600, Guarantee: 500, CostPerWeek: 1500, MinFans: 2000, MinMoney: 1500},
			{ID: "arena", Name: "Arena tour", Weeks: 6, ShowsPerWeek: 4, Capacity: 8000, Guarantee: 5000, CostPerWeek: 12000, MinFans: 50000, MinMoney: 10000, RequiresDeal: true},
		},
	}
}

// Load reads path over Defaults, so a file only needs the keys it changes.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.MaxWeeks <= 0 {
		return fmt.Errorf("max_weeks must be > 0")
	}
	if t.Triggers.MaxChance <= 0 || t.Triggers.MaxChance >= 1 {
		return fmt.Errorf("triggers.max_chance must be in (0,1)")
	}
	if _, ok := t.Difficulties["normal"]; !ok {
		return fmt.Errorf("difficulties.normal missing")
	}
	for name, d := range t.Difficulties {
		if d.CostMultiplier <= 0 || d.IncomeMultiplier <= 0 {
			return fmt.Errorf("difficulty %s: multipliers must be > 0", name)
		}
	}
	for _, s := range t.Studios {
		if s.ID == "" || s.MinWeeks < 1 {
			return fmt.Errorf("studio %q: id and min_weeks required", s.ID)
		}
	}
	for _, ts := range t.Tours {
		if ts.ID == "" || ts.Weeks < 1 || ts.ShowsPerWeek < 1 {
			return fmt.Errorf("tour %q: id, weeks and shows_per_week required", ts.ID)
		}
	}
	return nil
}

func (t Tuning) Difficulty(name string) (Difficulty, error) {
	d, ok := t.Difficulties[name]
	if !ok {
		return Difficulty{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, name)
	}
	return d, nil
}

func (t Tuning) Studio(id string) (Studio, error) {
	for _, s := range t.Studios {
		if s.ID == id {
			return s, nil
		}
	}
	return Studio{}, fmt.Errorf("%w: %q", ErrUnknownStudio, id)
}

func (t Tuning) Tour(id string) (TourSize, error) {
	for _, ts := range t.Tours {
		if ts.ID == id {
			return ts, nil
		}
	}
	return TourSize{}, fmt.Errorf("%w: %q", ErrUnknownTour, id)
}
