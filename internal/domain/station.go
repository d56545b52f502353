package domain

// RefuellingStation is one hydrogen refuelling site from the stations
// layer. Capacities are kilograms of hydrogen.
type RefuellingStation struct {
	Name            string  `json:"name"`
	CityState       string  `json:"city_state,omitempty"`
	Operator        string  `json:"operator,omitempty"`
	Opened          string  `json:"opened,omitempty"`
	Geo             Geo     `json:"geo"`
	StorageKg       float64 `json:"storage_capacity_kg,omitempty"`
	DailyCapacityKg float64 `json:"dispensing_daily_capacity_kg,omitempty"`
	UsageCase       string  `json:"usage_case,omitempty"`
}
