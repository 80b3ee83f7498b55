package testhelper

import "errors"

var (
	errObjectMissing = errors.New("object not found")
	errTransient     = errors.New("transient storage error")
)
