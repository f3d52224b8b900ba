package service

import (
	"os"
	"os/signal"
	"syscall"
)

// Service is a long-running process with a managed lifecycle.
type Service interface {
	Init() error
	Start() error
	Stop() error
}

// Run drives a service: Init, Start, then block until SIGINT/SIGTERM
// before calling Stop.
func Run(s Service) error {
	if err := s.Init(); err != nil {
		return err
	}

	if err := s.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Stop()
}
