// Package portal talks to the remote distance portal over its HTML form
// protocol.
//
// Client.Login posts the credentials and returns a Session holding the
// session cookies together with the page the portal answered with. The page
// carries the anti-forgery token and the participant id needed for the
// first submission. Every Session.Submit returns a new page with a rotated
// token; callers pass that token into the next Submit explicitly.
//
// A Session must not be shared across portal users.
package portal
