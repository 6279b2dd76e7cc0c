package controllers

type envelope map[string]interface{}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
