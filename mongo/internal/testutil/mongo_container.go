package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	mongoOnce sync.Once
	mongoURI  string
	mongoErr  error
)

// GetMongoURI starts one MongoDB container per test binary and returns its
// connection URI. Without Docker the calling test is skipped.
func GetMongoURI(t *testing.T) string {
	t.Helper()

	mongoOnce.Do(func() {
		mongoURI, mongoErr = runMongo()
	})
	if mongoErr != nil {
		t.Skipf("mongo unavailable: %v", mongoErr)
	}
	return mongoURI
}

func runMongo() (uri string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mongo container: %v", r)
		}
	}()

	c, err := testcontainers.Run(ctx, "mongo:7",
		testcontainers.WithExposedPorts("27017/tcp"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("27017/tcp")),
	)
	if err != nil {
		return "", fmt.Errorf("mongo container: %w", err)
	}

	endpoint, err := c.PortEndpoint(ctx, "27017/tcp", "mongodb")
	if err != nil {
		_ = c.Terminate(context.Background())
		return "", fmt.Errorf("mongo endpoint: %w", err)
	}
	return endpoint, nil
}
