// Package tckv starts key value servers used as result stores in tests.
package tckv

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func start(
	ctx context.Context,
	req testcontainers.ContainerRequest,
	port nat.Port,
	scheme string,
) (string, error) {
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            true,
		})
	if err != nil {
		return "", err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s://%s:%s", scheme, host, mapped.Port()), nil
}

// SetupRedis returns the url of a running redis server
func SetupRedis(ctx context.Context) (string, error) {
	port, err := nat.NewPort("tcp", "6379")
	if err != nil {
		return "", err
	}
	return start(ctx, testcontainers.ContainerRequest{
		Image:        "redis:7",
		Name:         "raceanalysis-service-test-redis",
		ExposedPorts: []string{string(port)},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(30 * time.Second),
	}, port, "redis")
}

// SetupNats returns the url of a running nats server with jetstream enabled
func SetupNats(ctx context.Context) (string, error) {
	port, err := nat.NewPort("tcp", "4222")
	if err != nil {
		return "", err
	}
	return start(ctx, testcontainers.ContainerRequest{
		Image:        "nats:2",
		Name:         "raceanalysis-service-test-nats",
		ExposedPorts: []string{string(port)},
		Cmd:          []string{"-js"},
		WaitingFor: wait.ForLog("Server is ready").
			WithStartupTimeout(30 * time.Second),
	}, port, "nats")
}
