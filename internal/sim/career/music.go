package career

type StreamsTier string

const (
	TierNone    StreamsTier = "none"
	TierLow     StreamsTier = "low"
	TierMedium  StreamsTier = "medium"
	TierHigh    StreamsTier = "high"
	TierMassive StreamsTier = "massive"
)

var StreamsTiers = []StreamsTier{TierNone, TierLow, TierMedium, TierHigh, TierMassive}

func (t StreamsTier) Valid() bool {
	for _, v := range StreamsTiers {
		if v == t {
			return true
		}
	}
	return false
}

// Rank orders tiers from none (0) to massive (4).
func (t StreamsTier) Rank() int {
	for i, v := range StreamsTiers {
		if v == t {
			return i
		}
	}
	return 0
}

type SalesTier string

const (
	SalesFlop   SalesTier = "flop"
	SalesModest SalesTier = "modest"
	SalesSolid  SalesTier = "solid"
	SalesHit    SalesTier = "hit"
	SalesSmash  SalesTier = "smash"
)

var SalesTiers = []SalesTier{SalesFlop, SalesModest, SalesSolid, SalesHit, SalesSmash}

type ChartEntry struct {
	Week     int `json:"week"`
	Position int `json:"position"`
	Streams  int `json:"streams"`
}

// Song quality and hit potential are fixed when the song is written.
type Song struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Quality      int    `json:"quality"`
	HitPotential int    `json:"hitPotential"`
	WrittenWeek  int    `json:"writtenWeek"`
	AlbumID      string `json:"albumId,omitempty"`

	Released     bool `json:"released"`
	ReleasedWeek int  `json:"releasedWeek,omitempty"`

	StreamsTier         StreamsTier `json:"streamsTier"`
	PlaylistScore       int         `json:"playlistScore"`
	Viral               bool        `json:"viral"`
	ViralWeeksRemaining int         `json:"viralWeeksRemaining"`
	WeeklyStreams       int         `json:"weeklyStreams"`
	TotalStreams        int64       `json:"totalStreams"`

	ChartHistory []ChartEntry `json:"chartHistory,omitempty"`
}

type Album struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	SongIDs         []string  `json:"songIds"`
	Quality         int       `json:"quality"`
	ProductionValue int       `json:"productionValue"`
	Reception       int       `json:"reception"`
	SalesTier       SalesTier `json:"salesTier"`
	RecordedWeek    int       `json:"recordedWeek"`
	LabelDealID     string    `json:"labelDealId,omitempty"`

	Released     bool `json:"released"`
	ReleasedWeek int  `json:"releasedWeek,omitempty"`
	Revenue      int  `json:"revenue,omitempty"`
}

func (s *GameState) Song(id string) (*Song, bool) {
	for i := range s.Songs {
		if s.Songs[i].ID == id {
			return &s.Songs[i], true
		}
	}
	return nil, false
}

func (s *GameState) Album(id string) (*Album, bool) {
	for i := range s.Albums {
		if s.Albums[i].ID == id {
			return &s.Albums[i], true
		}
	}
	return nil, false
}

// LooseSongs are unreleased songs not bundled into any album.
func (s *GameState) LooseSongs() []*Song {
	var out []*Song
	for i := range s.Songs {
		if !s.Songs[i].Released && s.Songs[i].AlbumID == "" {
			out = append(out, &s.Songs[i])
		}
	}
	return out
}

func (s *GameState) ReleasedSongs() int {
	n := 0
	for _, song := range s.Songs {
		if song.Released {
			n++
		}
	}
	return n
}

func (s *GameState) ReleasedAlbums() int {
	n := 0
	for _, a := range s.Albums {
		if a.Released {
			n++
		}
	}
	return n
}

// NextUnreleasedAlbum returns the oldest recorded album not yet out.
func (s *GameState) NextUnreleasedAlbum() (*Album, bool) {
	for i := range s.Albums {
		if !s.Albums[i].Released {
			return &s.Albums[i], true
		}
	}
	return nil, false
}
