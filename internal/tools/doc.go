// Package tools implements the maintenance commands that sit next to the
// sync pass: encrypting the password export and sending a single entry to
// the portal by hand.
package tools
