package entity

import "errors"

var (
	// ErrNotFound is returned when a short code does not resolve to a live link.
	ErrNotFound = errors.New("short link not found")
	// ErrNotOwner is returned when the caller's token does not match the link owner.
	ErrNotOwner = errors.New("not the owner of the short link")
	// ErrInvalidParameter is returned when a value violates a business bound.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidOriginalLink is returned when an original URL is malformed.
	ErrInvalidOriginalLink = errors.New("invalid original link")
	// ErrExhausted is returned when a redirect is blocked by the usage limit.
	ErrExhausted = errors.New("usage limit exhausted")
	// ErrExpired is returned when a redirect is blocked by the expiration time.
	ErrExpired = errors.New("short link expired")
)
