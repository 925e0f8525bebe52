package career

type DealType string

const (
	DealTraditional DealType = "traditional"
	DealDistro      DealType = "distro"
	Deal360         DealType = "360"
)

func (t DealType) Valid() bool {
	return t == DealTraditional || t == DealDistro || t == Deal360
}

type DealStatus string

const (
	DealActive  DealStatus = "active"
	DealDropped DealStatus = "dropped"
)

// LabelDeal rates are the artist's share (streaming) or the label's cut
// (merch, touring). Only 360 deals cut merch and touring.
type LabelDeal struct {
	ID                   string     `json:"id"`
	LabelName            string     `json:"labelName"`
	DealType             DealType   `json:"dealType"`
	Advance              int        `json:"advance"`
	RecoupDebt           int        `json:"recoupDebt"`
	StreamingRoyaltyRate float64    `json:"streamingRoyaltyRate"`
	MerchCutRate         float64    `json:"merchCutRate,omitempty"`
	TouringCutRate       float64    `json:"touringCutRate,omitempty"`
	Status               DealStatus `json:"status"`
	SignedWeek           int        `json:"signedWeek"`
	EndedWeek            int        `json:"endedWeek,omitempty"`
	AlbumsDelivered      int        `json:"albumsDelivered"`
}

// ActiveDeal returns the one deal in force, if any.
func (s *GameState) ActiveDeal() (*LabelDeal, bool) {
	for i := range s.LabelDeals {
		if s.LabelDeals[i].Status == DealActive {
			return &s.LabelDeals[i], true
		}
	}
	return nil, false
}
