package dto

type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
