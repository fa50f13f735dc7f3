package relation

import (
	"strings"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// Transition identifies a recognized ordered stage pair.
type Transition string

const (
	TransitionLandingToBronze  Transition = "landing_to_bronze"
	TransitionBronzeToSilver   Transition = "bronze_to_silver"
	TransitionSilverToGold     Transition = "silver_to_gold"
	TransitionGoldToMart       Transition = "gold_to_mart"
	TransitionMartToSemantic   Transition = "mart_to_semantic"
	TransitionSemanticToReport Transition = "semantic_to_report"
	// TransitionUnspecified covers every unrecognized stage pair. Cascading
	// still works, no stage technical fields are injected.
	TransitionUnspecified Transition = "unspecified"
)

var transitions = map[[2]string]Transition{
	{"s0", "s1"}: TransitionLandingToBronze,
	{"s1", "s2"}: TransitionBronzeToSilver,
	{"s2", "s3"}: TransitionSilverToGold,
	{"s3", "s4"}: TransitionGoldToMart,
	{"s4", "s5"}: TransitionMartToSemantic,
	{"s5", "s6"}: TransitionSemanticToReport,
}

// targetLayers names the layer a transition lands in, used to prefix the
// injected technical fields.
var targetLayers = map[Transition]string{
	TransitionLandingToBronze:  "bronze",
	TransitionBronzeToSilver:   "silver",
	TransitionSilverToGold:     "gold",
	TransitionGoldToMart:       "mart",
	TransitionMartToSemantic:   "semantic",
	TransitionSemanticToReport: "report",
}

// DetectTransition maps an ordered stage pair to its transition.
// Unrecognized pairs degrade to TransitionUnspecified, never an error.
func DetectTransition(sourceStageID, targetStageID string) Transition {
	if t, ok := transitions[[2]string{sourceStageID, targetStageID}]; ok {
		return t
	}
	return TransitionUnspecified
}

// TargetLayer returns the layer name the transition lands in, "" for
// TransitionUnspecified.
func (t Transition) TargetLayer() string {
	return targetLayers[t]
}

// DetectArtifactType resolves an artifact's semantic kind. An explicit
// non-blank type field wins; otherwise the name is matched against the
// conventional dimensional-modeling prefixes.
func DetectArtifactType(name, explicit string) core.ArtifactType {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "dimension":
		return core.ArtifactDimension
	case "fact":
		return core.ArtifactFact
	case "bridge":
		return core.ArtifactBridge
	}

	lower := strings.ToLower(name)

	for _, prefix := range []string{"dim_", "dimension_", "d_"} {
		if strings.HasPrefix(lower, prefix) {
			return core.ArtifactDimension
		}
	}
	if strings.HasPrefix(lower, "f_") || strings.Contains(lower, "fact") {
		return core.ArtifactFact
	}
	if strings.HasPrefix(lower, "br_") || strings.Contains(lower, "bridge") {
		return core.ArtifactBridge
	}

	return core.ArtifactUnknown
}
