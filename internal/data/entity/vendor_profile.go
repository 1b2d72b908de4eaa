package entity

// VendorProfile mirrors the record owned by the vendor service. This service
// creates it once per vendor principal and otherwise only reads it.
type VendorProfile struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"userId"`
	StoreName   string `json:"storeName"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Country     string `json:"country,omitempty"`
	Governorate string `json:"governorate,omitempty"`
}
