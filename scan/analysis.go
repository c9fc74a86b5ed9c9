package scan

import (
	"fmt"
	"math"

	"github.com/raynmakers/vigil/dlq"
)

// Analysis aggregates flagged records into the patterns operators actually
// look for: which collections and statuses are piling up, and how old the
// pile is.
type Analysis struct {
	ByState      map[State]int    `json:"by_state"`
	ByStatus     map[string]int   `json:"by_status"`
	ByCollection map[string]int   `json:"by_collection"`
	ByCategory   map[Category]int `json:"by_category"`
	MeanAgeHours float64          `json:"mean_age_hours"`
	OldestHours  float64          `json:"oldest_hours"`
}

// BuildAnalysis computes pattern aggregates over the flagged records.
func BuildAnalysis(records []StuckRecord) Analysis {
	a := Analysis{
		ByState:      make(map[State]int),
		ByStatus:     make(map[string]int),
		ByCollection: make(map[string]int),
		ByCategory:   make(map[Category]int),
	}

	var totalAge float64
	for _, rec := range records {
		a.ByState[rec.State]++
		a.ByStatus[rec.Status]++
		a.ByCollection[rec.Collection]++
		a.ByCategory[rec.Cause.Category]++
		totalAge += rec.AgeHours
		if rec.AgeHours > a.OldestHours {
			a.OldestHours = rec.AgeHours
		}
	}

	if len(records) > 0 {
		a.MeanAgeHours = totalAge / float64(len(records))
	}

	return a
}

// ImpactLevel buckets the health impact score.
type ImpactLevel string

const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// HealthImpact summarizes how badly stuck records are hurting throughput.
type HealthImpact struct {
	// Score is 0-100, weighted toward critical records.
	Score int `json:"score"`
	// Level buckets the score: <25 low, <50 medium, <75 high, else critical.
	Level ImpactLevel `json:"impact_level"`
	// ProcessingEfficiency is 100 minus the score, floored at zero.
	ProcessingEfficiency int `json:"processing_efficiency"`
}

// staleWeight discounts stale records relative to critical ones in the
// impact score.
const staleWeight = 0.4

// ComputeHealthImpact derives the impact score from flagged counts. An
// empty sweep scores zero with full efficiency.
func ComputeHealthImpact(staleCount, criticalCount int) HealthImpact {
	total := staleCount + criticalCount
	if total == 0 {
		return HealthImpact{Score: 0, Level: ImpactLow, ProcessingEfficiency: 100}
	}

	raw := 100 * (float64(criticalCount) + staleWeight*float64(staleCount)) / float64(total)
	score := int(math.Round(raw))

	var level ImpactLevel
	switch {
	case score < 25:
		level = ImpactLow
	case score < 50:
		level = ImpactMedium
	case score < 75:
		level = ImpactHigh
	default:
		level = ImpactCritical
	}

	efficiency := 100 - score
	if efficiency < 0 {
		efficiency = 0
	}

	return HealthImpact{Score: score, Level: level, ProcessingEfficiency: efficiency}
}

// Recommendation is one prioritized operator action derived from a sweep.
type Recommendation struct {
	Priority  dlq.Priority `json:"priority"`
	Action    string       `json:"action"`
	Rationale string       `json:"rationale"`
}

// BuildRecommendations derives operator actions from the aggregate shape of
// a sweep. An empty sweep yields no recommendations.
func BuildRecommendations(a Analysis, thresholds Thresholds) []Recommendation {
	total := a.ByState[StateStale] + a.ByState[StateCritical]
	if total == 0 {
		return nil
	}

	var recs []Recommendation

	if critical := a.ByState[StateCritical]; critical > 0 {
		recs = append(recs, Recommendation{
			Priority:  dlq.PriorityHigh,
			Action:    "investigate upstream service health and review escalated dead letter entries",
			Rationale: fmt.Sprintf("%d records aged past the critical threshold (%s)", critical, thresholds.Critical),
		})
	}

	if quota := a.ByCategory[CategoryQuota]; quota > 0 {
		recs = append(recs, Recommendation{
			Priority:  dlq.PriorityHigh,
			Action:    "verify provider quota and daily budget headroom",
			Rationale: fmt.Sprintf("%d records diagnosed with quota-linked causes", quota),
		})
	}

	if a.ByState[StateCritical] == 0 && a.MeanAgeHours > 2*thresholds.Staleness.Hours() {
		recs = append(recs, Recommendation{
			Priority:  dlq.PriorityMedium,
			Action:    "re-tune the staleness threshold or scan more frequently",
			Rationale: fmt.Sprintf("mean stuck age %.1fh is more than twice the staleness threshold", a.MeanAgeHours),
		})
	}

	recs = append(recs, Recommendation{
		Priority:  dlq.PriorityLow,
		Action:    "audit producer heartbeat updates for long-running work",
		Rationale: "stuck records usually mean producers stopped touching updated_at",
	})

	return recs
}
