package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Orders() OrderRepository
	PaymentSignals() PaymentSignalRepository
	Positions() PositionRepository
	Riders() RiderRepository
}
