package managers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/chrissnell/wmrcollector/internal/controllers/restserver"
	"github.com/chrissnell/wmrcollector/pkg/config"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a controller manager. The REST server is only
// created when a port is configured.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, rc config.RESTData, deps restserver.Dependencies, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		controllers: make([]Controller, 0),
		logger:      logger,
	}

	if rc.Port == 0 {
		logger.Info("rest.port not set; REST server disabled")
		return cm, nil
	}

	rs, err := restserver.NewController(ctx, wg, rc, deps, logger.Named("rest"))
	if err != nil {
		return nil, fmt.Errorf("could not create REST server: %w", err)
	}
	cm.controllers = append(cm.controllers, rs)

	return cm, nil
}

type controllerManager struct {
	controllers []Controller
	logger      *zap.SugaredLogger
}

// StartControllers starts all configured controllers
func (cm *controllerManager) StartControllers() error {
	for _, c := range cm.controllers {
		if err := c.StartController(); err != nil {
			return err
		}
	}
	return nil
}
