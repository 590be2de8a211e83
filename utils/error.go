package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorNegativeValue rejects a field edit; the caller keeps the prior value.
var ErrorNegativeValue = errors.New("value must be zero or greater")
