package dto

type SubmitCodeInput struct {
	Subject   string `json:"subject"`
	Channel   string `json:"channel"`
	Code      string `json:"code"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
