package models

import "time"

const (
	ProviderLocal = "local"
)

type User struct {
	ID          string    `json:"_id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Email       string    `json:"email" bson:"email"`
	Password    string    `json:"-" bson:"password"`
	Provider    string    `json:"provider,omitempty" bson:"provider"`
	Address     string    `json:"address" bson:"address"`
	WalletMoney float64   `json:"walletMoney" bson:"walletMoney"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasAddress indique si l'adresse a été renseignée (différente de la valeur sentinelle)
func (u *User) HasAddress(defaultAddress string) bool {
	return u.Address != "" && u.Address != defaultAddress
}
