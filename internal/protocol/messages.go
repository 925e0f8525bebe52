package protocol

import (
	"gigcraft.ai/internal/sim/actions"
	"gigcraft.ai/internal/sim/career"
	"gigcraft.ai/internal/sim/engine"
)

// HELLO (client -> server). Auth.Token resumes an existing run; without it
// a new run starts from the remaining fields.
type HelloMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PlayerName      string     `json:"player_name,omitempty"`
	BandName        string     `json:"band_name,omitempty"`
	Difficulty      string     `json:"difficulty,omitempty"`
	Seed            *int64     `json:"seed,omitempty"`
	Auth            *HelloAuth `json:"auth,omitempty"`
}

type HelloAuth struct {
	Token string `json:"token,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	RunID           string         `json:"run_id"`
	ResumeToken     string         `json:"resume_token"`
	Resumed         bool           `json:"resumed,omitempty"`
	RunParams       RunParams      `json:"run_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type RunParams struct {
	Seed         int64    `json:"seed"`
	Difficulty   string   `json:"difficulty"`
	MaxWeeks     int      `json:"max_weeks"`
	Difficulties []string `json:"difficulties"`
}

type CatalogDigests struct {
	CatalogDigest     string `json:"catalog_digest"`
	EventsDigest      string `json:"events_digest"`
	ArcsDigest        string `json:"arcs_digest"`
	TemptationsDigest string `json:"temptations_digest"`
	VenuesDigest      string `json:"venues_digest"`
	TuningDigest      string `json:"tuning_digest,omitempty"`
}

// CMD (client -> server): one player command.
type CmdMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ReqID           string         `json:"req_id"`
	Command         engine.Command `json:"command"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	Text            string `json:"text,omitempty"`
	Week            int    `json:"week,omitempty"`
}

// STATE (server -> client): the full run after every accepted command and
// once right after WELCOME.
type StateMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	RunID           string             `json:"run_id"`
	Week            int                `json:"week"`
	Digest          string             `json:"digest"`
	Available       []actions.ID       `json:"available"`
	Turn            *engine.TurnResult `json:"turn,omitempty"`
	State           *career.GameState  `json:"state"`
}

// LEADERBOARD_REQ (client -> server)
type LeaderboardReqMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	Limit           int    `json:"limit,omitempty"`
}

type LeaderboardEntry struct {
	RunID     string `json:"run_id"`
	BandName  string `json:"band_name"`
	Week      int    `json:"week"`
	Category  string `json:"category"`
	Variation string `json:"variation"`
	Title     string `json:"title"`
	Fans      int    `json:"fans"`
	Money     int    `json:"money"`
}

// LEADERBOARD (server -> client)
type LeaderboardMsg struct {
	Type            string             `json:"type"`
	ProtocolVersion string             `json:"protocol_version"`
	ReqID           string             `json:"req_id"`
	Entries         []LeaderboardEntry `json:"entries"`
}
