package models

// HotelInfo is the singleton description of the property.
type HotelInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// DefaultHotelInfo is used until staff configure the record.
func DefaultHotelInfo() HotelInfo {
	return HotelInfo{
		Name:    "Infinity Hotel",
		Address: "Av. do Contorno, 6480 - Savassi, Belo Horizonte",
		Phone:   "(31) 3333-4444",
	}
}
