package notification

import (
	"fmt"
	"sync"

	"github.com/herdwatch/herdwatch-go/internal/logger"
)

var (
	instance *Service
	once     sync.Once
	mu       sync.RWMutex
)

// Initialize sets up the global notification service instance.
func Initialize(config *ServiceConfig, log logger.Logger) {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		instance = NewService(config, log)
	})
}

// GetService returns the global notification service instance, or nil when
// not initialized.
func GetService() *Service {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// SetServiceForTesting allows setting a custom service instance for testing
// only. It returns an error if the service is already initialized.
func SetServiceForTesting(service *Service) error {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil && service != nil {
		return fmt.Errorf("notification service already initialized")
	}

	instance = service
	return nil
}

// IsInitialized checks if the notification service has been initialized.
func IsInitialized() bool {
	mu.RLock()
	defer mu.RUnlock()
	return instance != nil
}
