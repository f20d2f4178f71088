package io

import (
	"errors"

	"github.com/ezrec/tinyvm/translate"
)

var f = translate.From

var (
	// Image errors
	ErrImageTooLarge = errors.New(f("image larger than the address space"))
)
