package response

import (
	"time"

	"account-provisioning/internal/data/entity"
)

type OrphanResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReconcileResponse summarizes one reconciliation pass.
type ReconcileResponse struct {
	Scanned int `json:"scanned"`
	Linked  int `json:"linked"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
}

func OrphansToResponse(principals []*entity.Principal) []OrphanResponse {
	out := make([]OrphanResponse, 0, len(principals))
	for _, p := range principals {
		out = append(out, OrphanResponse{
			ID:        p.ID,
			Email:     p.Email,
			Name:      p.Name,
			CreatedAt: p.CreatedAt,
		})
	}
	return out
}
