package domain

// ModelIdentifier exposes the model an adapter was configured with.
// The manager logs it at registration and metrics label calls with it.
type ModelIdentifier interface {
	ModelID() string
}
