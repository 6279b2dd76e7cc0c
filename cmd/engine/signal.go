package main

import (
	"os"

	"github.com/lintang-b-s/indoornav/pkg/http"
)

func shutdownSignal() <-chan os.Signal {
	sig := make(chan os.Signal, 1)
	go func() {
		sig <- http.GracefulShutdown()
	}()
	return sig
}
