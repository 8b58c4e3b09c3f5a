package dto

type RefreshInput struct {
	RefreshToken string `json:"refresh_token"`
	Rotate       bool   `json:"rotate"`
	IPAddress    string `json:"-"`
	UserAgent    string `json:"-"`
}

type LogoutInput struct {
	RefreshToken string `json:"refresh_token"`
}
