package abiutils

import "errors"

var (
	ErrNotEnoughData     = errors.New("not enough data to decode")
	ErrUndecodableRevert = errors.New("undecodable revert data")
	ErrInvalidSignature  = errors.New("invalid signature")
)
