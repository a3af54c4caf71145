package models

type UserStats struct {
	Total  int `json:"total"`
	Banned int `json:"banned"`
	Admins int `json:"admins"`
	Recent int `json:"recent"`
}

type ProductStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Recent int `json:"recent"`
}

type OrderStats struct {
	Total    int                 `json:"total"`
	ByStatus map[OrderStatus]int `json:"by_status"`
}

// AdminStats is the dashboard summary. Recent counts cover the last seven days.
type AdminStats struct {
	Users    UserStats    `json:"users"`
	Products ProductStats `json:"products"`
	Orders   OrderStats   `json:"orders"`
}
