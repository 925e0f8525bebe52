package career

import (
	"fmt"
	"strings"
)

const (
	StatMin = 0
	StatMax = 100
)

// Stat names a player attribute. The names double as JSON keys and as the
// vocabulary content authors use in effects.
type Stat string

const (
	StatMoney            Stat = "money"
	StatFans             Stat = "fans"
	StatFollowers        Stat = "followers"
	StatHealth           Stat = "health"
	StatSkill            Stat = "skill"
	StatTalent           Stat = "talent"
	StatHype             Stat = "hype"
	StatCred             Stat = "cred"
	StatStability        Stat = "stability"
	StatBurnout          Stat = "burnout"
	StatAddiction        Stat = "addiction"
	StatImage            Stat = "image"
	StatIndustryGoodwill Stat = "industryGoodwill"
	StatAlgoBoost        Stat = "algoBoost"
	StatCataloguePower   Stat = "cataloguePower"
)

// BoundedStats are clamped to [StatMin, StatMax] on every mutation.
var BoundedStats = []Stat{
	StatHealth,
	StatSkill,
	StatTalent,
	StatHype,
	StatCred,
	StatStability,
	StatBurnout,
	StatAddiction,
	StatImage,
	StatIndustryGoodwill,
	StatAlgoBoost,
	StatCataloguePower,
}

type Flags struct {
	OnTour       bool `json:"onTour"`
	InStudio     bool `json:"inStudio"`
	HasLabelDeal bool `json:"hasLabelDeal"`
	HasManager   bool `json:"hasManager"`
}

type Player struct {
	Name     string `json:"name"`
	BandName string `json:"bandName"`

	// Unbounded. Money may go negative; fans and followers only grow.
	Money     int `json:"money"`
	Fans      int `json:"fans"`
	Followers int `json:"followers"`

	Health           int `json:"health"`
	Skill            int `json:"skill"`
	Talent           int `json:"talent"`
	Hype             int `json:"hype"`
	Cred             int `json:"cred"`
	Stability        int `json:"stability"`
	Burnout          int `json:"burnout"`
	Addiction        int `json:"addiction"`
	Image            int `json:"image"`
	IndustryGoodwill int `json:"industryGoodwill"`
	AlgoBoost        int `json:"algoBoost"`
	CataloguePower   int `json:"cataloguePower"`

	Flags Flags `json:"flags"`
}

// Get reads any numeric attribute by name.
func (p *Player) Get(s Stat) (int, bool) {
	ptr := p.ref(s)
	if ptr == nil {
		return 0, false
	}
	return *ptr, true
}

func (p *Player) ref(s Stat) *int {
	switch s {
	case StatMoney:
		return &p.Money
	case StatFans:
		return &p.Fans
	case StatFollowers:
		return &p.Followers
	case StatHealth:
		return &p.Health
	case StatSkill:
		return &p.Skill
	case StatTalent:
		return &p.Talent
	case StatHype:
		return &p.Hype
	case StatCred:
		return &p.Cred
	case StatStability:
		return &p.Stability
	case StatBurnout:
		return &p.Burnout
	case StatAddiction:
		return &p.Addiction
	case StatImage:
		return &p.Image
	case StatIndustryGoodwill:
		return &p.IndustryGoodwill
	case StatAlgoBoost:
		return &p.AlgoBoost
	case StatCataloguePower:
		return &p.CataloguePower
	default:
		return nil
	}
}

// StatDelta is a set of signed changes. It is the only way player attributes
// change; see Player.Apply.
type StatDelta struct {
	Money            int `json:"money,omitempty"`
	Fans             int `json:"fans,omitempty"`
	Followers        int `json:"followers,omitempty"`
	Health           int `json:"health,omitempty"`
	Skill            int `json:"skill,omitempty"`
	Talent           int `json:"talent,omitempty"`
	Hype             int `json:"hype,omitempty"`
	Cred             int `json:"cred,omitempty"`
	Stability        int `json:"stability,omitempty"`
	Burnout          int `json:"burnout,omitempty"`
	Addiction        int `json:"addiction,omitempty"`
	Image            int `json:"image,omitempty"`
	IndustryGoodwill int `json:"industryGoodwill,omitempty"`
	AlgoBoost        int `json:"algoBoost,omitempty"`
	CataloguePower   int `json:"cataloguePower,omitempty"`
}

type StatChange struct {
	Stat  Stat
	Delta int
}

// Changes lists the non-zero entries in a fixed order.
func (d StatDelta) Changes() []StatChange {
	all := []StatChange{
		{StatMoney, d.Money},
		{StatFans, d.Fans},
		{StatFollowers, d.Followers},
		{StatHealth, d.Health},
		{StatSkill, d.Skill},
		{StatTalent, d.Talent},
		{StatHype, d.Hype},
		{StatCred, d.Cred},
		{StatStability, d.Stability},
		{StatBurnout, d.Burnout},
		{StatAddiction, d.Addiction},
		{StatImage, d.Image},
		{StatIndustryGoodwill, d.IndustryGoodwill},
		{StatAlgoBoost, d.AlgoBoost},
		{StatCataloguePower, d.CataloguePower},
	}
	out := all[:0]
	for _, c := range all {
		if c.Delta != 0 {
			out = append(out, c)
		}
	}
	return out
}

func (d StatDelta) IsZero() bool { return len(d.Changes()) == 0 }

func (d StatDelta) Plus(o StatDelta) StatDelta {
	return StatDelta{
		Money:            d.Money + o.Money,
		Fans:             d.Fans + o.Fans,
		Followers:        d.Followers + o.Followers,
		Health:           d.Health + o.Health,
		Skill:            d.Skill + o.Skill,
		Talent:           d.Talent + o.Talent,
		Hype:             d.Hype + o.Hype,
		Cred:             d.Cred + o.Cred,
		Stability:        d.Stability + o.Stability,
		Burnout:          d.Burnout + o.Burnout,
		Addiction:        d.Addiction + o.Addiction,
		Image:            d.Image + o.Image,
		IndustryGoodwill: d.IndustryGoodwill + o.IndustryGoodwill,
		AlgoBoost:        d.AlgoBoost + o.AlgoBoost,
		CataloguePower:   d.CataloguePower + o.CataloguePower,
	}
}

func (d StatDelta) String() string {
	changes := d.Changes()
	if len(changes) == 0 {
		return "no change"
	}
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s %+d", c.Stat, c.Delta))
	}
	return strings.Join(parts, ", ")
}

// Apply returns p with d applied. Bounded attributes are clamped, money is
// free, fans and followers ignore negative changes.
func (p Player) Apply(d StatDelta) Player {
	p.Money += d.Money
	p.Fans += nonNegative(d.Fans)
	p.Followers += nonNegative(d.Followers)

	p.Health = Clamp(p.Health + d.Health)
	p.Skill = Clamp(p.Skill + d.Skill)
	p.Talent = Clamp(p.Talent + d.Talent)
	p.Hype = Clamp(p.Hype + d.Hype)
	p.Cred = Clamp(p.Cred + d.Cred)
	p.Stability = Clamp(p.Stability + d.Stability)
	p.Burnout = Clamp(p.Burnout + d.Burnout)
	p.Addiction = Clamp(p.Addiction + d.Addiction)
	p.Image = Clamp(p.Image + d.Image)
	p.IndustryGoodwill = Clamp(p.IndustryGoodwill + d.IndustryGoodwill)
	p.AlgoBoost = Clamp(p.AlgoBoost + d.AlgoBoost)
	p.CataloguePower = Clamp(p.CataloguePower + d.CataloguePower)
	return p
}

// Clamp bounds v to [StatMin, StatMax].
func Clamp(v int) int {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
