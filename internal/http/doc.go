// Package http exposes the reservation system as a JSON API.
//
// The router serves the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user":{"id","name","role"}} with the
//     token also surfaced via the `X-Session-Token` header and a
//     `session_token` cookie. The route may be rate limited per client.
//   - DELETE /sessions/current: revokes the current session token extracted
//     from the Authorization header or session cookie. Returns 204 No Content
//     and clears the cookie.
//   - GET/POST /reservations, GET/PUT/DELETE /reservations/{id}: reservation
//     management exchanging the `reservationDTO` payload defined in
//     reservation_handler.go. Creation and edits answer 409 with a `conflicts`
//     list when the requested slot overlaps a blocking reservation.
//   - POST /reservations/{id}/approve|reject|cancel: status transitions.
//     Rejections require {"reason"} in the body.
//   - GET /reservations/pending: the caller's approval inbox. Professors see
//     pending reservations of their projects; administrators see the final
//     approval queue.
//   - GET /calendar?room_id=&day=|week=|month=|start=&end=: concrete calendar
//     entries for the window, recurring reservations expanded into instances.
//   - GET/POST /rooms, GET/PUT/DELETE /rooms/{id}: room catalog. Listing is
//     open to any authenticated user; mutations require the admin role.
//     DELETE deactivates the room instead of dropping its history.
//   - GET/POST /users, GET/PUT/DELETE /users/{id}: administrator controlled
//     account management.
//   - GET/POST /projects, GET /projects/{id}: academic project registry.
//
// All error payloads share the errorResponse shape with messages localized in
// Portuguese. Request/response DTOs live alongside their respective handlers.
package http
