package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment statuses of a parcel.
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Delivery statuses of a parcel.
const (
	DeliveryStatusNotCollected  = "not_collected"
	DeliveryStatusRiderAssigned = "rider_assigned"
	DeliveryStatusInTransit     = "in_transit"
	DeliveryStatusDelivered     = "delivered"
)

// User roles.
const (
	RoleUser  = "user"
	RoleRider = "rider"
	RoleAdmin = "admin"
)

// Rider application statuses.
const (
	RiderStatusPending     = "pending"
	RiderStatusActive      = "active"
	RiderStatusRejected    = "rejected"
	RiderStatusDeactivated = "deactivated"
)

// Contact is the sender or receiver block of a parcel, stored as JSONB.
type Contact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Region   string `json:"region,omitempty"`
	District string `json:"district,omitempty"`
}

// Parcel represents a row in the parcels table.
type Parcel struct {
	ID             string          `json:"_id"`
	TrackingID     string          `json:"tracking_id"`
	CreatedBy      string          `json:"created_by"`
	Title          string          `json:"title"`
	Type           string          `json:"type"`
	WeightKG       decimal.Decimal `json:"weight"`
	Cost           decimal.Decimal `json:"cost"`
	Sender         Contact         `json:"sender"`
	Receiver       Contact         `json:"receiver"`
	PaymentStatus  string          `json:"payment_status"`
	DeliveryStatus string          `json:"delivery_status"`
	AssignedRider  string          `json:"assigned_rider_id,omitempty"`
	CreatedAt      time.Time       `json:"creation_date"`
}

// PaymentRecord is an append-only settlement record for a parcel.
type PaymentRecord struct {
	ID            string          `json:"_id"`
	ParcelID      string          `json:"parcelId"`
	Email         string          `json:"email"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Fingerprint   string          `json:"fingerprint"`
	PaidAt        time.Time       `json:"paid_at"`
}

// User is an account created on first sign-in.
type User struct {
	ID          string    `json:"_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	LastLogin   time.Time `json:"last_log_in"`
}

// Rider is a delivery rider application.
type Rider struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Region    string    `json:"region"`
	District  string    `json:"district"`
	BikeBrand string    `json:"bike_brand"`
	BikeReg   string    `json:"bike_registration"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}
