package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"tracklight/auth"
	"tracklight/internal/config"
	"tracklight/oauth2client"
	"tracklight/server"
	"tracklight/sessions"
	"tracklight/tickets"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	if err := config.Validate(c); err != nil {
		// Missing client credentials are fatal; the process must not start.
		return fmt.Errorf("config.Validate: %w", err)
	}
	displayAppname(c.GetAppName())

	sessionRepo := sessions.NewInMemoryRepo()
	defer sessionRepo.Stop()

	provider, err := oauth2client.New(context.Background(), c, c.GetBaseURL())
	if err != nil {
		return fmt.Errorf("oauth2client.New: %w", err)
	}
	// Must match the callback URI registered with the provider.
	log.Printf("OAuth redirect URI: %s\n", provider.RedirectURI())

	authService, err := auth.NewService(sessionRepo, provider,
		auth.WithPKCEWindow(c.GetPKCEWindow()),
		auth.WithExpiryBuffer(c.GetTokenExpiryBuffer()),
	)
	if err != nil {
		return fmt.Errorf("auth.NewService: %w", err)
	}

	srv, err := server.New(c, authService, sessionRepo, tickets.NewClient(c.GetTicketAPIBaseURL()))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
