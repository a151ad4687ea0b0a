package model

// Core domain types shared by the parsers, the merger, the optimizer and the API.

// VesselInfo is the voyage header of a stowage message. Fields stay empty until
// their segment has been seen.
type VesselInfo struct {
    VesselNumber       string `json:"vesselNumber,omitempty"`
    Carrier            string `json:"carrier,omitempty"`
    VesselName         string `json:"vesselName,omitempty"`
    FromPort           string `json:"fromPort,omitempty"`
    ToPort             string `json:"toPort,omitempty"`
    StartDate          string `json:"startDate,omitempty"`
    PlannedArrivalDate string `json:"plannedArrivalDate,omitempty"`
}

// Measured records which numeric fields hold a value. Parsed stowage records
// define all of them (0 included); the merger falls back to discharge values
// only for fields a record leaves undefined.
type Measured uint8

const (
    MeasuredWeight Measured = 1 << iota
    MeasuredDimensions
)

// Has reports whether all bits of f are set.
func (m Measured) Has(f Measured) bool { return m&f == f }

// ContainerRecord is one EQD entity of a stowage message.
type ContainerRecord struct {
    ContainerNumber string   `json:"containerNumber"`
    Type            string   `json:"type"`
    Weight          float64  `json:"weight"`
    Length          float64  `json:"length"`
    Width           float64  `json:"width"`
    Height          float64  `json:"height"`
    Location        string   `json:"location"`
    Measured        Measured `json:"-"`
}

// UnknownContainer is used when a discharge order names no container.
const UnknownContainer = "UNKNOWN"

// DischargeCostRecord is one EQD entity of a discharge-order message.
type DischargeCostRecord struct {
    ContainerNumber string   `json:"containerNumber"`
    Weight          float64  `json:"weight"`
    Length          float64  `json:"length"`
    Width           float64  `json:"width"`
    Height          float64  `json:"height"`
    Measured        Measured `json:"-"`
}

// ContainerDetail is one row of the merged table the optimizer works on.
type ContainerDetail struct {
    ContainerNumber string  `json:"containerNumber"`
    Type            string  `json:"type"`
    Weight          float64 `json:"weight"`
    Length          float64 `json:"length"`
    Width           float64 `json:"width"`
    Height          float64 `json:"height"`
    Location        string  `json:"location"`
}

// SequencedContainer is a row placed at a discharge position (1-based).
// Coords is the decoded "x:y:z" location for 3D views.
type SequencedContainer struct {
    Seq       int               `json:"seq"`
    Index     int               `json:"index"`
    Coords    [3]int            `json:"coords"`
    Equipment map[string]string `json:"equipment,omitempty"`
    ContainerDetail
}

// CostBreakdown is the unweighted contribution of each cost term.
type CostBreakdown struct {
    Weight    float64 `json:"weight"`
    Footprint float64 `json:"footprint"`
    Imbalance float64 `json:"imbalance"`
}

// Issue is a segment the parser had to absorb.
type Issue struct {
    Line    int    `json:"line"`
    Segment string `json:"segment"`
    Reason  string `json:"reason"`
}

// Diagnostics summarises one parse. Parsers never fail; they count instead.
type Diagnostics struct {
    Segments   int     `json:"segments"`
    Recognized int     `json:"recognized"`
    Recovered  int     `json:"recovered"`
    Orphaned   int     `json:"orphaned"`
    Issues     []Issue `json:"issues,omitempty"`
}

// Requests

type ParseRequest struct {
    Manifest       string `json:"manifest"`
    DischargeOrder string `json:"dischargeOrder,omitempty"`
}

type ParseResponse struct {
    Vessel      VesselInfo             `json:"vessel"`
    Containers  []ContainerRecord      `json:"containers"`
    Discharge   []DischargeCostRecord  `json:"discharge,omitempty"`
    Diagnostics map[string]Diagnostics `json:"diagnostics"`
}

// OptimizerOptions overrides optimizer defaults. Zero values keep the default.
type OptimizerOptions struct {
    PopulationSize int                `json:"populationSize,omitempty"`
    Generations    int                `json:"generations,omitempty"`
    CrossoverProb  float64            `json:"crossoverProb,omitempty"`
    MutationProb   float64            `json:"mutationProb,omitempty"`
    IndexProb      float64            `json:"indexProb,omitempty"`
    TournamentSize int                `json:"tournamentSize,omitempty"`
    Seed           int64              `json:"seed,omitempty"`
    TimeBudgetMs   int                `json:"timeBudgetMs,omitempty"`
    Objectives     map[string]float64 `json:"objectives,omitempty"`
}

type PlanRequest struct {
    TenantID       string            `json:"tenantId,omitempty"`
    Manifest       string            `json:"manifest"`
    DischargeOrder string            `json:"dischargeOrder"`
    EquipmentCSV   string            `json:"equipmentCsv,omitempty"`
    Optimizer      *OptimizerOptions `json:"optimizer,omitempty"`
    Async          bool              `json:"async,omitempty"`
    CallbackURL    string            `json:"callbackUrl,omitempty"`
    CallbackSecret string            `json:"callbackSecret,omitempty"`
}

// Plan is the outcome of one parse/merge/optimize pipeline.
type Plan struct {
    Vessel             VesselInfo             `json:"vessel"`
    Containers         []ContainerDetail      `json:"containers"`
    Sequence           []int                  `json:"sequence"`
    Ordered            []SequencedContainer   `json:"ordered"`
    Cost               float64                `json:"cost"`
    Breakdown          CostBreakdown          `json:"breakdown"`
    Seed               int64                  `json:"seed"`
    Generations        int                    `json:"generations"`
    Evaluations        int                    `json:"evaluations"`
    Truncated          bool                   `json:"truncated,omitempty"`
    ElapsedMs          int64                  `json:"elapsedMs"`
    EquipmentRows      int                    `json:"equipmentRows,omitempty"`
    UnlistedContainers []string               `json:"unlistedContainers,omitempty"`
    Diagnostics        map[string]Diagnostics `json:"diagnostics"`
}

// Progress is a per-generation snapshot published while a run is in flight.
type Progress struct {
    Generation int     `json:"generation"`
    BestCost   float64 `json:"bestCost"`
    MeanCost   float64 `json:"meanCost"`
    WorstCost  float64 `json:"worstCost"`
    GlobalBest float64 `json:"globalBest"`
}

// Run statuses.
const (
    RunPending   = "pending"
    RunRunning   = "running"
    RunSucceeded = "succeeded"
    RunFailed    = "failed"
)

// Run tracks an asynchronous plan request.
type Run struct {
    ID         string    `json:"id"`
    TenantID   string    `json:"tenantId"`
    Status     string    `json:"status"`
    CreatedAt  string    `json:"createdAt"`
    FinishedAt string    `json:"finishedAt,omitempty"`
    Error      string    `json:"error,omitempty"`
    Progress   *Progress `json:"progress,omitempty"`
    Plan       *Plan     `json:"plan,omitempty"`
}
