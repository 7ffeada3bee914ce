package service

import "fmt"

// Call types an agent can declare. Deposit declarations are created by the
// system during deposit confirmation, never submitted directly.
const (
	CallTypeDeposit = "deposit"
	CallTypeFirst   = "first_call"
	CallTypeSecond  = "second_call"
	CallTypeThird   = "third_call"
	CallTypeFourth  = "fourth_call"
)

// Call categories.
const (
	CategoryFTD    = "ftd"
	CategoryFiller = "filler"
)

const (
	// baseWindowSeconds is the duration covered by the base bonus.
	baseWindowSeconds = 3600
	// overageRateCents is paid per complete hour beyond the base window.
	overageRateCents = 1000
)

var baseBonusCents = map[string]int64{
	CallTypeDeposit: 1000,
	CallTypeFirst:   750,
	CallTypeSecond:  750,
	CallTypeThird:   500,
	CallTypeFourth:  1000,
}

var callTypeLabels = map[string]string{
	CallTypeDeposit: "Deposit Call",
	CallTypeFirst:   "First Call",
	CallTypeSecond:  "Second Call",
	CallTypeThird:   "Third Call",
	CallTypeFourth:  "Fourth Call",
}

// Bonus is the computed payout for a declared call, in cents.
type Bonus struct {
	BaseCents    int64 `json:"baseCents"`
	OverageCents int64 `json:"overageCents"`
	TotalCents   int64 `json:"totalCents"`
}

// CalculateBonus computes the bonus for a call type and duration. Unknown
// call types earn a zero base but still accrue overage per complete hour
// beyond the first. The function is total: any input yields a result.
func CalculateBonus(callType string, durationSeconds int) Bonus {
	base := baseBonusCents[callType]

	var overage int64
	if durationSeconds > baseWindowSeconds {
		extraHours := int64(durationSeconds-baseWindowSeconds) / baseWindowSeconds
		overage = extraHours * overageRateCents
	}

	return Bonus{
		BaseCents:    base,
		OverageCents: overage,
		TotalCents:   base + overage,
	}
}

// IsDeclarableType reports whether agents may declare this call type.
func IsDeclarableType(callType string) bool {
	_, known := baseBonusCents[callType]
	return known && callType != CallTypeDeposit
}

// IsKnownType reports whether the call type participates in bonus payout.
func IsKnownType(callType string) bool {
	_, known := baseBonusCents[callType]
	return known
}

// CallTypeInfo describes one declarable call type for the UI.
type CallTypeInfo struct {
	Value      string `json:"value"`
	Label      string `json:"label"`
	BonusCents int64  `json:"bonusCents"`
}

// CallTypes lists the agent-declarable call types in pipeline order.
func CallTypes() []CallTypeInfo {
	order := []string{CallTypeFirst, CallTypeSecond, CallTypeThird, CallTypeFourth}
	infos := make([]CallTypeInfo, 0, len(order))
	for _, value := range order {
		infos = append(infos, CallTypeInfo{
			Value:      value,
			Label:      callTypeLabels[value],
			BonusCents: baseBonusCents[value],
		})
	}
	return infos
}

// CallTypeLabel returns the display name for a call type, falling back to
// the raw value.
func CallTypeLabel(callType string) string {
	if label, ok := callTypeLabels[callType]; ok {
		return label
	}
	return callType
}

// FormatDuration renders seconds as H:MM:SS, or M:SS under an hour.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
