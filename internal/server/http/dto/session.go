package dto

// LoginRequest describes a rider phone/PIN payload.
type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
	PIN   string `json:"pin" binding:"required"`
}

// LoginResponse carries the device token and the rider profile.
type LoginResponse struct {
	Token   string `json:"token"`
	RiderID int64  `json:"rider_id"`
	Name    string `json:"name"`
}
