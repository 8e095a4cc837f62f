package patterns

import (
	"sort"

	"candle-scanner/internal/analysis"
	"candle-scanner/internal/models"
)

// Support / resistance thresholds.
const (
	// MinLevelBars is the minimum view length for level clustering.
	MinLevelBars = 50
	// LevelSwingWindow / LevelSwingThreshold parameterize swing
	// extraction for level clustering.
	LevelSwingWindow    = 15
	LevelSwingThreshold = 0.003
	// ClusterTolerance is the maximum relative distance from a cluster's
	// anchor price for a swing to join the cluster.
	ClusterTolerance = 0.001
	// MinClusterTouches is the minimum number of swings a cluster needs
	// to count as a level.
	MinClusterTouches = 2
	// ProximityRatio marks levels within this relative distance of the
	// latest close as proximate.
	ProximityRatio = 0.005
)

// LevelClusterer derives support and resistance levels by greedily grouping
// swing lows and swing highs whose prices sit within ClusterTolerance of a
// cluster anchor. A cluster's level price is the mean of its members;
// clusters touched fewer than MinClusterTouches times are discarded.
type LevelClusterer struct {
	swingWindow    int
	swingThreshold float64
	tolerance      float64
	minTouches     int
	proximity      float64
}

// NewLevelClusterer creates a clusterer with the default thresholds.
func NewLevelClusterer() *LevelClusterer {
	return &LevelClusterer{
		swingWindow:    LevelSwingWindow,
		swingThreshold: LevelSwingThreshold,
		tolerance:      ClusterTolerance,
		minTouches:     MinClusterTouches,
		proximity:      ProximityRatio,
	}
}

func (c *LevelClusterer) Name() string {
	return "LevelClusterer"
}

// MinBars returns the minimum number of bars the clusterer needs.
func (c *LevelClusterer) MinBars() int {
	return MinLevelBars
}

// Levels clusters the prices of every swing, high and low alike, and splits
// the resulting levels by the latest close: below it they are support
// (sorted nearest-below-first, descending), at or above resistance (sorted
// nearest-above-first, ascending). Each level is tagged with whether it sits
// within the proximity band of the close.
func (c *LevelClusterer) Levels(view []models.Bar) (support, resistance []analysis.Level) {
	if len(view) < MinLevelBars {
		return nil, nil
	}

	highs, lows := ExtractSwings(view, c.swingWindow, c.swingThreshold)
	lastClose := view[len(view)-1].Close

	prices := make([]float64, 0, len(highs)+len(lows))
	for _, s := range highs {
		prices = append(prices, s.Price)
	}
	for _, s := range lows {
		prices = append(prices, s.Price)
	}

	for _, lvl := range c.cluster(prices, lastClose) {
		if lvl.Kind == analysis.LevelSupport {
			support = append(support, lvl)
		} else {
			resistance = append(resistance, lvl)
		}
	}

	sort.Slice(support, func(i, j int) bool { return support[i].Price > support[j].Price })
	sort.Slice(resistance, func(i, j int) bool { return resistance[i].Price < resistance[j].Price })
	return support, resistance
}

// cluster groups swing prices ascending; each price either joins the open
// cluster (within tolerance of its anchor, the cluster's first price) or
// starts a new one. Cluster means below lastClose become support, the rest
// resistance.
func (c *LevelClusterer) cluster(prices []float64, lastClose float64) []analysis.Level {
	if len(prices) == 0 {
		return nil
	}
	sort.Float64s(prices)

	var levels []analysis.Level
	flush := func(members []float64) {
		if len(members) < c.minTouches {
			return
		}
		var sum float64
		for _, p := range members {
			sum += p
		}
		mean := sum / float64(len(members))
		kind := analysis.LevelResistance
		if mean < lastClose {
			kind = analysis.LevelSupport
		}
		levels = append(levels, analysis.Level{
			Price:     mean,
			Kind:      kind,
			Touches:   len(members),
			Proximate: lastClose > 0 && absf(mean-lastClose)/lastClose <= c.proximity,
		})
	}

	anchor := prices[0]
	members := []float64{anchor}
	for _, p := range prices[1:] {
		if anchor > 0 && (p-anchor)/anchor <= c.tolerance {
			members = append(members, p)
			continue
		}
		flush(members)
		anchor = p
		members = []float64{anchor}
	}
	flush(members)
	return levels
}
