package models

// DailySeries is the zero-filled per-day projection the dashboard chart
// draws. Intake and Burned are parallel to Labels.
type DailySeries struct {
	Labels []string `json:"labels"`
	Intake []int    `json:"intake"`
	Burned []int    `json:"burned"`
}

// Totals sums both series.
func (s *DailySeries) Totals() (intake, burned int) {
	for i := range s.Labels {
		intake += s.Intake[i]
		burned += s.Burned[i]
	}
	return intake, burned
}
