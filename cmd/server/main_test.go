package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestShutdown_StopsServerBeforeAuditQueue(t *testing.T) {
	var order []string
	server := func(context.Context) error { order = append(order, "server"); return nil }
	auditQueue := func(context.Context) error { order = append(order, "audit"); return nil }

	if err := shutdown(zerolog.Nop(), server, auditQueue, time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 || order[0] != "server" || order[1] != "audit" {
		t.Fatalf("unexpected order: %v", order)
	}
}

func TestShutdown_DrainsAuditQueueWhenServerFails(t *testing.T) {
	errServer := errors.New("server")
	drained := false
	server := func(context.Context) error { return errServer }
	auditQueue := func(context.Context) error { drained = true; return nil }

	err := shutdown(zerolog.Nop(), server, auditQueue, time.Second)
	if !errors.Is(err, errServer) {
		t.Fatalf("expected server error, got %v", err)
	}
	if !drained {
		t.Fatalf("expected audit queue to be drained")
	}
}
