package career

import (
	"fmt"
	"slices"
)

const StateVersion = 1

type GameOverReason string

const (
	ReasonNone          GameOverReason = ""
	ReasonDeath         GameOverReason = "death"
	ReasonTimeLimit     GameOverReason = "time_limit"
	ReasonBroke         GameOverReason = "broke"
	ReasonBandCollapsed GameOverReason = "band_collapsed"
)

type ActiveArc struct {
	ArcID            string `json:"arcId"`
	CurrentStage     int    `json:"currentStage"`
	StartedWeek      int    `json:"startedWeek"`
	StageStartedWeek int    `json:"stageStartedWeek"`
	StageEvents      int    `json:"stageEvents"`
}

type RecordingKind string

const (
	RecordingAlbum          RecordingKind = "record"
	RecordingWriteAndRecord RecordingKind = "write_and_record"
)

type RecordingSession struct {
	ID              string        `json:"id"`
	Kind            RecordingKind `json:"kind"`
	Studio          string        `json:"studio"`
	AlbumTitle      string        `json:"albumTitle"`
	SongIDs         []string      `json:"songIds"`
	WeeksRequired   int           `json:"weeksRequired"`
	WeeksRemaining  int           `json:"weeksRemaining"`
	ProductionValue int           `json:"productionValue"`
	CostPerWeek     int           `json:"costPerWeek"`
	AccumulatedCost int           `json:"accumulatedCost"`
	Progress        int           `json:"progress"`
	StartedWeek     int           `json:"startedWeek"`
}

type TourSession struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Size           string `json:"size"`
	WeeksRequired  int    `json:"weeksRequired"`
	WeeksRemaining int    `json:"weeksRemaining"`
	ShowsPerWeek   int    `json:"showsPerWeek"`
	Capacity       int    `json:"capacity"`
	Guarantee      int    `json:"guarantee"`
	CostPerWeek    int    `json:"costPerWeek"`
	ShowsPlayed    int    `json:"showsPlayed"`
	GrossRevenue   int    `json:"grossRevenue"`
	MerchRevenue   int    `json:"merchRevenue"`
	Costs          int    `json:"costs"`
	LabelCut       int    `json:"labelCut"`
	FansGained     int    `json:"fansGained"`
	StartedWeek    int    `json:"startedWeek"`
}

// Net is what the tour pays out when it settles.
func (t *TourSession) Net() int {
	return t.GrossRevenue + t.MerchRevenue - t.Costs - t.LabelCut
}

type Gig struct {
	VenueID    string `json:"venueId"`
	VenueName  string `json:"venueName"`
	Capacity   int    `json:"capacity"`
	Guarantee  int    `json:"guarantee"`
	Week       int    `json:"week"`
	BookedWeek int    `json:"bookedWeek"`
}

type WeekLog struct {
	Week   int    `json:"week"`
	Action string `json:"action"`
	Result string `json:"result"`
}

type PendingEvent struct {
	EventID string `json:"eventId"`
	ArcID   string `json:"arcId,omitempty"`
}

type PendingTemptation struct {
	TemptationID string `json:"temptationId"`
}

type NamingKind string

const (
	NamingSong  NamingKind = "song"
	NamingAlbum NamingKind = "album"
)

// PendingNaming is a tagged variant: exactly the payload matching Kind is set.
type PendingNaming struct {
	Kind  NamingKind   `json:"kind"`
	Song  *SongNaming  `json:"song,omitempty"`
	Album *AlbumNaming `json:"album,omitempty"`
}

type SongNaming struct {
	SongID       string `json:"songId"`
	DefaultTitle string `json:"defaultTitle"`
}

type AlbumNaming struct {
	AlbumID      string `json:"albumId"`
	DefaultTitle string `json:"defaultTitle"`
}

func SongNamingFor(song Song) PendingNaming {
	return PendingNaming{Kind: NamingSong, Song: &SongNaming{SongID: song.ID, DefaultTitle: song.Title}}
}

func AlbumNamingFor(album Album) PendingNaming {
	return PendingNaming{Kind: NamingAlbum, Album: &AlbumNaming{AlbumID: album.ID, DefaultTitle: album.Title}}
}

// TargetID is the id of the song or album awaiting a title.
func (n PendingNaming) TargetID() string {
	switch n.Kind {
	case NamingSong:
		if n.Song != nil {
			return n.Song.SongID
		}
	case NamingAlbum:
		if n.Album != nil {
			return n.Album.AlbumID
		}
	}
	return ""
}

func (n PendingNaming) valid() error {
	switch n.Kind {
	case NamingSong:
		if n.Song == nil || n.Album != nil {
			return fmt.Errorf("song naming payload mismatch")
		}
	case NamingAlbum:
		if n.Album == nil || n.Song != nil {
			return fmt.Errorf("album naming payload mismatch")
		}
	default:
		return fmt.Errorf("unknown naming kind %q", n.Kind)
	}
	return nil
}

type CareerStats struct {
	PeakFans       int `json:"peakFans"`
	PeakHype       int `json:"peakHype"`
	LowestHealth   int `json:"lowestHealth"`
	LowestMoney    int `json:"lowestMoney"`
	TotalEarned    int `json:"totalEarned"`
	GigsPlayed     int `json:"gigsPlayed"`
	ToursCompleted int `json:"toursCompleted"`
	WeeksInDebt    int `json:"weeksInDebt"`
}

// Observe folds the current player into the running extremes.
func (c *CareerStats) Observe(p Player) {
	c.PeakFans = max(c.PeakFans, p.Fans)
	c.PeakHype = max(c.PeakHype, p.Hype)
	c.LowestHealth = min(c.LowestHealth, p.Health)
	c.LowestMoney = min(c.LowestMoney, p.Money)
	if p.Money < 0 {
		c.WeeksInDebt++
	}
}

type Counters struct {
	NextSong     int `json:"nextSong"`
	NextAlbum    int `json:"nextAlbum"`
	NextBandmate int `json:"nextBandmate"`
	NextDeal     int `json:"nextDeal"`
	NextSession  int `json:"nextSession"`
}

type EndingRecord struct {
	Category  string `json:"category"`
	Variation string `json:"variation"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Score     int    `json:"score"`
}

// GameState is the whole run. The engine never mutates a state it was handed;
// every operation works on a Clone.
type GameState struct {
	Version    int    `json:"version"`
	RunID      string `json:"runId"`
	Seed       int64  `json:"seed"`
	Difficulty string `json:"difficulty"`
	Week       int    `json:"week"`
	Year       int    `json:"year"`

	Player     Player      `json:"player"`
	Bandmates  []Bandmate  `json:"bandmates"`
	Songs      []Song      `json:"songs"`
	Albums     []Album     `json:"albums"`
	LabelDeals []LabelDeal `json:"labelDeals"`

	ActiveArcs          []ActiveArc    `json:"activeArcs"`
	CompletedArcIDs     []string       `json:"completedArcIds"`
	TriggeredEventIDs   []string       `json:"triggeredEventIds"`
	TemptationCooldowns map[string]int `json:"temptationCooldowns"`

	RecordingSession *RecordingSession `json:"recordingSession"`
	TourSession      *TourSession      `json:"tourSession"`
	UpcomingGig      *Gig              `json:"upcomingGig"`

	PendingEvent      *PendingEvent      `json:"pendingEvent"`
	PendingTemptation *PendingTemptation `json:"pendingTemptation"`
	PendingNamings    []PendingNaming    `json:"pendingNamings"`

	WeekLogs []WeekLog   `json:"weekLogs"`
	Stats    CareerStats `json:"stats"`
	Counters Counters    `json:"counters"`

	IsGameOver     bool           `json:"isGameOver"`
	GameOverReason GameOverReason `json:"gameOverReason"`
	Ending         *EndingRecord  `json:"ending"`
}

// YearForWeek maps a 1-based week to a 1-based year.
func YearForWeek(week int) int {
	if week < 1 {
		return 1
	}
	return (week-1)/52 + 1
}

// Blocked reports an unresolved choice the caller must settle before the next turn.
func (s *GameState) Blocked() bool {
	return s.PendingEvent != nil || s.PendingTemptation != nil || len(s.PendingNamings) > 0
}

func (s *GameState) InSession() bool {
	return s.RecordingSession != nil || s.TourSession != nil
}

func (s *GameState) EventTriggered(id string) bool {
	return slices.Contains(s.TriggeredEventIDs, id)
}

func (s *GameState) ArcCompleted(id string) bool {
	return slices.Contains(s.CompletedArcIDs, id)
}

func (s *GameState) ActiveArc(id string) (*ActiveArc, bool) {
	for i := range s.ActiveArcs {
		if s.ActiveArcs[i].ArcID == id {
			return &s.ActiveArcs[i], true
		}
	}
	return nil, false
}

// RecordEvent marks a one-time event consumed. It is idempotent.
func (s *GameState) RecordEvent(id string) {
	if !s.EventTriggered(id) {
		s.TriggeredEventIDs = append(s.TriggeredEventIDs, id)
	}
}

func (s *GameState) NextSongID() string {
	s.Counters.NextSong++
	return fmt.Sprintf("song-%d", s.Counters.NextSong)
}

func (s *GameState) NextAlbumID() string {
	s.Counters.NextAlbum++
	return fmt.Sprintf("album-%d", s.Counters.NextAlbum)
}

func (s *GameState) NextBandmateID() string {
	s.Counters.NextBandmate++
	return fmt.Sprintf("member-%d", s.Counters.NextBandmate)
}

func (s *GameState) NextDealID() string {
	s.Counters.NextDeal++
	return fmt.Sprintf("deal-%d", s.Counters.NextDeal)
}

func (s *GameState) NextSessionID() string {
	s.Counters.NextSession++
	return fmt.Sprintf("session-%d", s.Counters.NextSession)
}

func (s *GameState) AppendLog(action, result string) {
	s.WeekLogs = append(s.WeekLogs, WeekLog{Week: s.Week, Action: action, Result: result})
}

// Clone returns a deep copy sharing no mutable memory with s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Bandmates = slices.Clone(s.Bandmates)
	out.Songs = make([]Song, len(s.Songs))
	for i, song := range s.Songs {
		song.ChartHistory = slices.Clone(song.ChartHistory)
		out.Songs[i] = song
	}
	out.Albums = make([]Album, len(s.Albums))
	for i, a := range s.Albums {
		a.SongIDs = slices.Clone(a.SongIDs)
		out.Albums[i] = a
	}
	out.LabelDeals = slices.Clone(s.LabelDeals)
	out.ActiveArcs = slices.Clone(s.ActiveArcs)
	out.CompletedArcIDs = slices.Clone(s.CompletedArcIDs)
	out.TriggeredEventIDs = slices.Clone(s.TriggeredEventIDs)
	out.TemptationCooldowns = make(map[string]int, len(s.TemptationCooldowns))
	for k, v := range s.TemptationCooldowns {
		out.TemptationCooldowns[k] = v
	}
	if s.RecordingSession != nil {
		rs := *s.RecordingSession
		rs.SongIDs = slices.Clone(rs.SongIDs)
		out.RecordingSession = &rs
	}
	if s.TourSession != nil {
		ts := *s.TourSession
		out.TourSession = &ts
	}
	if s.UpcomingGig != nil {
		g := *s.UpcomingGig
		out.UpcomingGig = &g
	}
	if s.PendingEvent != nil {
		pe := *s.PendingEvent
		out.PendingEvent = &pe
	}
	if s.PendingTemptation != nil {
		pt := *s.PendingTemptation
		out.PendingTemptation = &pt
	}
	out.PendingNamings = make([]PendingNaming, len(s.PendingNamings))
	for i, n := range s.PendingNamings {
		if n.Song != nil {
			v := *n.Song
			n.Song = &v
		}
		if n.Album != nil {
			v := *n.Album
			n.Album = &v
		}
		out.PendingNamings[i] = n
	}
	out.WeekLogs = slices.Clone(s.WeekLogs)
	if s.Ending != nil {
		e := *s.Ending
		out.Ending = &e
	}
	return &out
}

// NewState builds week 1 of a run around p.
func NewState(runID string, seed int64, difficulty string, p Player) *GameState {
	return &GameState{
		Version:             StateVersion,
		RunID:               runID,
		Seed:                seed,
		Difficulty:          difficulty,
		Week:                1,
		Year:                1,
		Player:              p,
		TemptationCooldowns: map[string]int{},
		Stats: CareerStats{
			PeakFans:     p.Fans,
			PeakHype:     p.Hype,
			LowestHealth: p.Health,
			LowestMoney:  p.Money,
		},
	}
}
