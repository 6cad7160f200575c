package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeInventory tracks stock for a physical or digital prize. A prize
// without an inventory record is not stock limited.
type PrizeInventory struct {
	PrizeID   primitive.ObjectID `bson:"_id" json:"prizeId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Reserved  int                `bson:"reserved" json:"reserved"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Available is the number of units that can still be awarded.
func (i *PrizeInventory) Available() int {
	if i == nil {
		return 0
	}
	if a := i.Quantity - i.Reserved; a > 0 {
		return a
	}
	return 0
}

// PrizeView pairs a prize with its inventory for the admin screens.
type PrizeView struct {
	*Prize
	Inventory *PrizeInventory `json:"inventory,omitempty"`
	Available *int            `json:"available,omitempty"`
}

// DrawStats summarises the prize catalog of one draw type.
type DrawStats struct {
	DrawType      DrawType `json:"drawType"`
	TotalPrizes   int      `json:"totalPrizes"`
	ActivePrizes  int      `json:"activePrizes"`
	RealPrizes    int      `json:"realPrizes"`
	NoWinPrizes   int      `json:"noWinPrizes"`
	TotalQuantity int      `json:"totalQuantity"`
	TotalReserved int      `json:"totalReserved"`
	TotalSpins    int64    `json:"totalSpins"`
	Enabled       bool     `json:"enabled"`
}
