// Package http exposes the booking engine over a thin echo transport.
//
// The router exposes the following endpoints:
//   - POST /bookings: creates a booking. Body: {"resourceId","title","description",
//     "start","end","attendees":[{"userId","name","status"}]}. Requires X-User-ID.
//     Responds 201 with the `bookingResponse` payload defined in booking_handler.go.
//   - GET /bookings: lists bookings. Query: resourceId, creatorId, status, date
//     (YYYY-MM-DD), start, end (RFC 3339), page, limit, order_by ("start desc, id").
//     Unknown parameters are rejected.
//   - GET /bookings/{id}: returns one booking, cancelled ones included.
//   - PATCH /bookings/{id} (also PUT): applies a partial update. Requires X-User-ID
//     and only the creator may modify a booking.
//   - GET /rooms/available: lists rooms free for [start, end). Optional capacity
//     keeps rooms at least that large.
//   - GET /healthz, GET /metrics: liveness and Prometheus exposition.
//
// Errors are rendered as {"error","kind","fields","conflict"}. Validation maps to
// 400, conflicts to 409, a non-creator actor to 403 and missing references to 400
// on writes and 404 on reads.
package http
