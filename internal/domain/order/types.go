package order

import "github.com/google/uuid"

type Type string

const (
	TypeBooking    Type = "booking"
	TypeCourse     Type = "course"
	TypeGroupClass Type = "group_class"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeBooking, TypeCourse, TypeGroupClass:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending           Status = "pending"
	StatusPaid              Status = "paid"
	StatusFailed            Status = "failed"
	StatusAbandoned         Status = "abandoned"
	StatusRefunded          Status = "refunded"
	StatusPartiallyRefunded Status = "partially_refunded"
)

func (s Status) String() string {
	return string(s)
}

// CouponRole records who created the coupon an order redeemed. The commission
// split depends on it.
type CouponRole string

const (
	CouponRoleAdmin  CouponRole = "admin"
	CouponRoleMentor CouponRole = "mentor"
)

// Resource is the tagged union behind Order.ResourceID: the order type
// selects which aggregate the id points at.
type Resource struct {
	Type Type
	ID   uuid.UUID
}

// ResourceHandler resolves one resource kind during order cascades
// (expiry, refund) without type switches at the call sites.
type ResourceHandler interface {
	OrderExpired(resource Resource) error
	OrderRefunded(resource Resource) error
}

// Dispatch routes a resource to the handler registered for its type.
type Dispatch map[Type]ResourceHandler

func (d Dispatch) Handler(t Type) (ResourceHandler, bool) {
	h, ok := d[t]
	return h, ok
}
