package catalogs

import "gigcraft.ai/internal/sim/career"

type BandmateTarget string

const (
	TargetAll        BandmateTarget = "all"
	TargetWorstVice  BandmateTarget = "worst_vice"
	TargetLeastLoyal BandmateTarget = "least_loyal"
	TargetRandom     BandmateTarget = "random"
)

type BandmateEffect struct {
	Target BandmateTarget       `json:"target"`
	Delta  career.BandmateDelta `json:"delta"`
}

// Risk adds one of two outcomes on top of a choice's base effects.
type Risk struct {
	Chance         float64          `json:"chance"`
	SuccessEffects career.StatDelta `json:"successEffects"`
	FailureEffects career.StatDelta `json:"failureEffects"`
	SuccessText    string           `json:"successText,omitempty"`
	FailureText    string           `json:"failureText,omitempty"`
}

type DealOffer struct {
	LabelName string          `json:"labelName"`
	DealType  career.DealType `json:"dealType"`
	Advance   int             `json:"advance"`
}

type Choice struct {
	ID              string           `json:"id"`
	Text            string           `json:"text"`
	ResultText      string           `json:"resultText,omitempty"`
	Effects         career.StatDelta `json:"effects"`
	BandmateEffects *BandmateEffect  `json:"bandmateEffects,omitempty"`
	Risk            *Risk            `json:"risk,omitempty"`
	DealOffer       *DealOffer       `json:"dealOffer,omitempty"`
	GrantsManager   bool             `json:"grantsManager,omitempty"`
}

type Event struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category,omitempty"`
	Weight         float64    `json:"weight"`
	OneTime        bool       `json:"oneTime,omitempty"`
	RequiredAction string     `json:"requiredAction,omitempty"`
	Conditions     Conditions `json:"conditions"`
	Choices        []Choice   `json:"choices"`
}

func (e *Event) Choice(id string) (*Choice, bool) {
	for i := range e.Choices {
		if e.Choices[i].ID == id {
			return &e.Choices[i], true
		}
	}
	return nil, false
}

type Stage struct {
	Name              string      `json:"name"`
	EventIDs          []string    `json:"eventIds"`
	AdvanceConditions *Conditions `json:"advanceConditions,omitempty"`
}

type Arc struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	EntryConditions Conditions  `json:"entryConditions"`
	AbortConditions *Conditions `json:"abortConditions,omitempty"`
	Stages          []Stage     `json:"stages"`
}

type Temptation struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Chance      float64    `json:"chance"`
	Cooldown    int        `json:"cooldown"`
	Conditions  Conditions `json:"conditions"`
	Choices     []Choice   `json:"choices"`
}

func (t *Temptation) Choice(id string) (*Choice, bool) {
	for i := range t.Choices {
		if t.Choices[i].ID == id {
			return &t.Choices[i], true
		}
	}
	return nil, false
}

type Venue struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Capacity    int    `json:"capacity"`
	Guarantee   int    `json:"guarantee"`
	BookingCost int    `json:"bookingCost"`
	MinFans     int    `json:"minFans"`
}

// Names feeds the generators for bandmates, default titles and labels.
type Names struct {
	FirstNames     []string `json:"firstNames"`
	LastNames      []string `json:"lastNames"`
	SongAdjectives []string `json:"songAdjectives"`
	SongNouns      []string `json:"songNouns"`
	AlbumWords     []string `json:"albumWords"`
	Labels         []string `json:"labels"`
}
