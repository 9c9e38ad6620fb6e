package prom

import "errors"

var errBatchFailed = errors.New("batch insert failed")
