package engine

import (
	"fmt"

	"github.com/lazypower/mindline/internal/state"
)

// Interpersonal-theory thresholds. Belongingness strain and
// burdensomeness must both be present, and the strain must feel
// permanent, before any desire registers.
const (
	strainPresentThreshold       = 0.5
	burdenPresentThreshold       = 0.5
	hopelessnessPresentThreshold = 0.5
	capabilityElevatedThreshold  = 0.3

	desireWarningThreshold  = 0.5
	desireCriticalThreshold = 0.7
	riskWarningThreshold    = 0.4
	riskCriticalThreshold   = 0.6

	stressSpiralThreshold     = 0.6
	depressionSpiralThreshold = 0.4
)

// RiskFactors is the interpersonal-theory composite read over one
// snapshot. Stateless and read-only: it never feeds back into the
// temporal walk.
type RiskFactors struct {
	BelongingnessStrain float64 `json:"belongingness_strain"`
	Burdensomeness      float64 `json:"burdensomeness"`
	Desire              float64 `json:"desire"`
	Capability          float64 `json:"capability"`
	Risk                float64 `json:"risk"`
}

// Severity grades an alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one threshold crossing worth surfacing to a caller.
type Alert struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// DeriveRisk computes the composite factors from a query result.
//
// Belongingness strain averages loneliness with the absence of
// perceived reciprocal caring. Burdensomeness multiplies perceived
// liability by self hate: both must be present. Desire is their product
// gated on strain, burden, and interpersonal hopelessness all being
// present; risk is desire times acquired capability.
func DeriveRisk(r Result) RiskFactors {
	eff := r.Effective

	strain := state.Clamp((eff[state.Loneliness]+(1-eff[state.ReciprocalCaring]))/2, 0, 1)
	burden := state.Clamp(eff[state.PerceivedLiability]*eff[state.SelfHate], 0, 1)

	desire := 0.0
	if strain >= strainPresentThreshold &&
		burden >= burdenPresentThreshold &&
		eff[state.InterpersonalHopelessness] >= hopelessnessPresentThreshold {
		desire = state.Clamp(strain*burden, 0, 1)
	}

	capability := state.Clamp(eff[state.AcquiredCapability], 0, 1)
	return RiskFactors{
		BelongingnessStrain: strain,
		Burdensomeness:      burden,
		Desire:              desire,
		Capability:          capability,
		Risk:                state.Clamp(desire*capability, 0, 1),
	}
}

// CheckAlerts gates the risk factors and a few spiral conditions
// against their thresholds. Returns nil for a healthy state; otherwise
// alerts ordered critical first.
func CheckAlerts(r Result, factors RiskFactors) []Alert {
	var critical, warning, info []Alert

	if factors.Desire >= desireCriticalThreshold {
		critical = append(critical, Alert{SeverityCritical, fmt.Sprintf("critical desire level: %.2f", factors.Desire)})
	} else if factors.Desire >= desireWarningThreshold {
		warning = append(warning, Alert{SeverityWarning, fmt.Sprintf("elevated desire level: %.2f", factors.Desire)})
	}

	if factors.Risk >= riskCriticalThreshold {
		critical = append(critical, Alert{SeverityCritical, fmt.Sprintf("critical risk level: %.2f", factors.Risk)})
	} else if factors.Risk >= riskWarningThreshold {
		warning = append(warning, Alert{SeverityWarning, fmt.Sprintf("elevated risk level: %.2f", factors.Risk)})
	}

	if factors.Capability >= capabilityElevatedThreshold && factors.Desire == 0 {
		info = append(info, Alert{SeverityInfo, fmt.Sprintf("dormant capability: %.2f with no desire", factors.Capability)})
	}

	if stress, ok := r.Effective[state.Stress]; ok && stress > stressSpiralThreshold {
		warning = append(warning, Alert{SeverityWarning, fmt.Sprintf("stress spiral active: %.2f", stress)})
	}
	if depression, ok := r.Effective[state.Depression]; ok && depression > depressionSpiralThreshold {
		warning = append(warning, Alert{SeverityWarning, fmt.Sprintf("depression spiral active: %.2f", depression)})
	}

	out := append(critical, warning...)
	return append(out, info...)
}
