package models

// Unit statuses as reported by the external registry.
const (
	UnitStatusActive = "ACTIVE"

	// DefaultCapacityW is assumed when the registry reports no nameplate capacity.
	DefaultCapacityW = 5000.0
)

// Unit is a tracked solar-generation unit, read-only to this service.
type Unit struct {
	ID           string  `json:"id"`
	SerialNumber string  `json:"serialNumber"`
	Capacity     float64 `json:"capacity,omitempty"` // nameplate watts
	Name         string  `json:"name"`
	Status       string  `json:"status"`
}

// CapacityOrDefault returns the nameplate capacity, falling back to
// DefaultCapacityW when the registry omitted it.
func (u Unit) CapacityOrDefault() float64 {
	if u.Capacity > 0 {
		return u.Capacity
	}
	return DefaultCapacityW
}
