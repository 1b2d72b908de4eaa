package request

type UpdateStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}
