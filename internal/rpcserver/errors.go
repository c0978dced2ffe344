package rpcserver

import "errors"

var errNotAdvancing = errors.New("rpcserver: block number is not increasing")
