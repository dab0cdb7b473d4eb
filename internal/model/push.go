package model

// PushNotification описывает push-уведомление клиента.
type PushNotification struct {
	ID        ID     `json:"id"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	Read      bool   `json:"read"`
}

// Recommendation описывает персональную продуктовую рекомендацию.
type Recommendation struct {
	ProductName string `json:"product_name"`
	PushText    string `json:"push_text"`
	Category    string `json:"category"`
	Priority    int    `json:"priority"`
}
