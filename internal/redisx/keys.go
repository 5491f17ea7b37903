package redisx

import "time"

const (
	// Slot registry document: config:{scope_key}:{config_key} -> JSON
	KeyConfig = "config:%s:%s"

	// Idempotency create booking: idem:booking:create:{external_id} -> booking_id
	KeyIdemBookingCreate = "idem:booking:create:%s"

	// Cache status booking: booking_status:{booking_id} -> {"status": "...", "updated_at": "..."}
	KeyBookingStatus = "booking_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	// held while the first request with an external_id is still booking
	TTLIdemPending = 30 * time.Second
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
