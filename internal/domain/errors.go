package domain

import "errors"

var (
	ErrPolicyNotFound = errors.New("retention policy not found")
	ErrPolicyExists   = errors.New("retention policy already exists")
	ErrInvalidPolicy  = errors.New("invalid retention policy")
	ErrUnknownTable   = errors.New("unknown table")
)
