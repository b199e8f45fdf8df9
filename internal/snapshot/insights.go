package snapshot

import (
	"fmt"

	"github.com/Veraticus/rfm-segments/internal/model"
)

// newCustomerShare is the fraction of first-time buyers above which the
// conversion insight fires.
const newCustomerShare = 0.4

// Insights derives the canned retention and growth recommendations.
func Insights(s *model.Snapshot) []model.Insight {
	var out []model.Insight

	atRisk := s.Count(model.SegmentAtRisk)
	if atRisk > 0 {
		out = append(out, model.Insight{
			Kind:    model.InsightRetention,
			Title:   "High Churn Risk",
			Message: fmt.Sprintf("You have %d at-risk customers. Action: Launch a \"We Miss You!\" campaign to re-engage them.", atRisk),
		})
	}

	champions := s.Count(model.SegmentChampions)
	if champions > 0 {
		out = append(out, model.Insight{
			Kind:    model.InsightRetention,
			Title:   "Nurture Champions",
			Message: fmt.Sprintf("Your %d Champions are your most valuable asset. Action: Create a VIP program.", champions),
		})
	}

	total := s.Len()
	if total > 0 && float64(s.Count(model.SegmentNew))/float64(total) > newCustomerShare {
		out = append(out, model.Insight{
			Kind:    model.InsightGrowth,
			Title:   "Convert New Buyers",
			Message: "A high percentage of your customers are new. Strategy: Implement a \"welcome\" offer.",
		})
	}

	if champions > 10 && s.Count(model.SegmentLoyal) > 20 {
		out = append(out, model.Insight{
			Kind:    model.InsightGrowth,
			Title:   "Upsell Loyal Customers",
			Message: "You have a strong base of Loyal Customers. Strategy: Promote products that Champions buy to this segment.",
		})
	}

	return out
}
