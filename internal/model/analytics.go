package model

// Analytics is computed by the server; every statistic is nullable because
// it is undefined until enough ratings exist.
type Analytics struct {
	QuizID        int64               `json:"quiz"`
	AttemptCount  int                 `json:"attempt_count"`
	RaterCount    int                 `json:"rater_count"`
	FleissKappa   *float64            `json:"fleiss_kappa"`
	CronbachAlpha *float64            `json:"cronbach_alpha"`
	Correlations  []SlotCorrelation   `json:"correlations"`
	PairedTTests  []PairedTTest       `json:"t_tests"`
	SlotSummaries []SlotRatingSummary `json:"slots"`
}

// SlotCorrelation is the rating correlation between two slots.
type SlotCorrelation struct {
	SlotA       int64    `json:"slot_a"`
	SlotB       int64    `json:"slot_b"`
	Pearson     *float64 `json:"pearson"`
	SampleCount int      `json:"n"`
}

// PairedTTest compares the ratings of two slots.
type PairedTTest struct {
	SlotA  int64    `json:"slot_a"`
	SlotB  int64    `json:"slot_b"`
	TStat  *float64 `json:"t"`
	PValue *float64 `json:"p"`
}

// SlotRatingSummary describes the ratings one slot received.
type SlotRatingSummary struct {
	SlotID int64    `json:"slot"`
	Label  string   `json:"label"`
	Mean   *float64 `json:"mean"`
	StdDev *float64 `json:"std_dev"`
	Count  int      `json:"count"`
}
