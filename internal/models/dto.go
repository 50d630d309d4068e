package models

// QuoteResponse DTO для ответа со списком предложений.
type QuoteResponse struct {
	ID              string              `json:"id"`
	ServiceID       string              `json:"service_id"`
	Amount          float64             `json:"amount"`
	AmountText      string              `json:"amount_text"`
	Description     string              `json:"description"`
	Status          string              `json:"status"`
	CreatedAt       string              `json:"created_at"`
	ValidUntil      string              `json:"valid_until"`
	ClientName      *string             `json:"client_name,omitempty"`
	ClientAddress   *string             `json:"client_address,omitempty"`
	ClientPhone     *string             `json:"client_phone,omitempty"`
	Materials       []MaterialDTO       `json:"materials,omitempty"`
	LaborCost       *float64            `json:"labor_cost,omitempty"`
	AdditionalCosts []AdditionalCostDTO `json:"additional_costs,omitempty"`
}

type MaterialDTO struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

type AdditionalCostDTO struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// QuoteListResponse DTO снимка хранилища предложений.
type QuoteListResponse struct {
	Quotes  []QuoteResponse `json:"quotes"`
	Loading bool            `json:"loading"`
	Error   string          `json:"error,omitempty"`
}

// CreateQuoteRequest DTO для создания предложения.
type CreateQuoteRequest struct {
	ClientName      string              `json:"client_name"`
	ClientAddress   string              `json:"client_address"`
	ClientPhone     string              `json:"client_phone"`
	Description     string              `json:"description"`
	ServiceType     string              `json:"service_type"`
	LaborCost       float64             `json:"labor_cost"`
	Materials       []MaterialRequest   `json:"materials"`
	AdditionalCosts []AdditionalCostDTO `json:"additional_costs"`
	ValidUntil      string              `json:"valid_until"`
}

// MaterialRequest DTO материала. Итог считается на сервере консоли.
type MaterialRequest struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// ServiceResponse DTO выезда.
type ServiceResponse struct {
	ID         string         `json:"id"`
	ClientName string         `json:"client_name"`
	Address    string         `json:"address"`
	Date       string         `json:"date"`
	Time       string         `json:"time"`
	Type       string         `json:"type"`
	TypeName   string         `json:"type_name"`
	Status     string         `json:"status"`
	Quote      *QuoteResponse `json:"quote,omitempty"`
	Notes      *string        `json:"notes,omitempty"`
}

// ServiceListResponse DTO снимка расписания.
type ServiceListResponse struct {
	Services []ServiceResponse `json:"services"`
	Loading  bool              `json:"loading"`
	Error    string            `json:"error,omitempty"`
}

// ServiceRequest DTO для создания и изменения выезда.
type ServiceRequest struct {
	ClientName string  `json:"client_name"`
	Address    string  `json:"address"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Type       string  `json:"type"`
	Status     string  `json:"status"`
	Notes      *string `json:"notes,omitempty"`
}
