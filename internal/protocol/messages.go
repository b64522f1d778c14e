package protocol

// HELLO (client -> server): create a new session or resume one by token.
type HelloMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Team            string      `json:"team,omitempty"`
	PlayerName      string      `json:"player_name,omitempty"`
	GoalDesc        string      `json:"goal_desc,omitempty"`
	Allocation      *Allocation `json:"allocation,omitempty"`
	Auth            *HelloAuth  `json:"auth,omitempty"`
}

type HelloAuth struct {
	ResumeToken string `json:"resume_token,omitempty"`
}

type Allocation struct {
	Wants   int `json:"wants"`
	EF      int `json:"ef"`
	Savings int `json:"savings"`
}

// WELCOME (server -> client).
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	SessionID       string     `json:"session_id"`
	ResumeToken     string     `json:"resume_token"`
	GameParams      GameParams `json:"game_params"`
	DeckDigest      string     `json:"deck_digest"`
}

type GameParams struct {
	Goal            int    `json:"goal"`
	Income          int    `json:"income"`
	FixedCosts      int    `json:"fixed_costs"`
	Rounds          int    `json:"rounds"`
	EFCap           int    `json:"ef_cap"`
	FundingPolicy   string `json:"funding_policy"`
	WellbeingPolicy string `json:"wellbeing_policy"`
	ReplenishPolicy string `json:"replenish_policy"`
}

// ACT (client -> server): one game operation.
const (
	ActStartRound = "START_ROUND"
	ActDraw       = "DRAW"
	ActChoose     = "CHOOSE"
	ActAllocate   = "ALLOCATE"
	ActResolveEF  = "RESOLVE_EF"
	ActReset      = "RESET"
)

type ActMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	ID              string      `json:"id"`
	Action          string      `json:"action"`
	Option          int         `json:"option,omitempty"`
	Allocation      *Allocation `json:"allocation,omitempty"`
	Redirect        bool        `json:"redirect,omitempty"`
}

// STATE (server -> client): full snapshot after every accepted action.
type StateMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Ref             string     `json:"ref,omitempty"`
	Status          string     `json:"status"`
	TimePenalty     bool       `json:"time_penalty,omitempty"`
	Player          PlayerView `json:"player"`
	CurrentCard     *CardView  `json:"current_card,omitempty"`
}

type PlayerView struct {
	Team       string     `json:"team"`
	Name       string     `json:"name"`
	GoalDesc   string     `json:"goal_desc,omitempty"`
	Income     int        `json:"income"`
	FixedCosts int        `json:"fixed_costs"`
	Allocation Allocation `json:"allocation"`

	WantsBalance int `json:"wants_balance"`
	EFBalance    int `json:"ef_balance"`
	Savings      int `json:"savings"`

	Wellbeing int `json:"wellbeing"`
	Time      int `json:"time"`

	RoundsPlayed       int        `json:"rounds_played"`
	DecisionLog        []Decision `json:"decision_log"`
	AwaitingRoundStart bool       `json:"awaiting_round_start"`
	EFFullAlert        bool       `json:"ef_full_alert,omitempty"`
}

type Decision struct {
	Card   string `json:"card"`
	Choice string `json:"choice"`
}

type CardView struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	CardType    string       `json:"card_type"`
	EFEligible  bool         `json:"ef_eligible"`
	Options     []OptionView `json:"options"`
}

type OptionView struct {
	Label     string `json:"label"`
	Money     int    `json:"money"`
	Wellbeing int    `json:"wellbeing"`
	Time      int    `json:"time"`
}

// RESULT (server -> client): outcome of a rejected (or handshake-level)
// action. Accepted actions are answered with STATE instead.
type ResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ref             string `json:"ref,omitempty"`
	OK              bool   `json:"ok"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
}
