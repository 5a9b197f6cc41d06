package http

import (
	"net/http"

	"moneypal/internal/core"
)

type dashboardResponse struct {
	UsableAmount   core.Money       `json:"usableAmount"`
	TotalInvested  core.Money       `json:"totalInvested"`
	CurrencySymbol string           `json:"currencySymbol"`
	Buckets        []bucketResponse `json:"buckets"`
}

func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.dashboard.Summary(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := dashboardResponse{
		UsableAmount:   sum.UsableAmount,
		TotalInvested:  sum.TotalInvested,
		CurrencySymbol: sum.CurrencySymbol,
		Buckets:        make([]bucketResponse, 0, len(sum.Buckets)),
	}
	for _, b := range sum.Buckets {
		out.Buckets = append(out.Buckets, toBucketResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}
