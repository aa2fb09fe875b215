package models

type Product struct {
	ID       string  `json:"_id" bson:"_id"`
	Name     string  `json:"name" bson:"name"`
	Category string  `json:"category" bson:"category"`
	Cost     float64 `json:"cost" bson:"cost"`
	Rating   float64 `json:"rating" bson:"rating"`
	Image    string  `json:"image" bson:"image"`
}
