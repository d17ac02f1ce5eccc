// Package app wires the domain services over pluggable stores and a ledger
// client, and manages background service lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/NeoReef/game-backend/internal/app/genealogy"
	"github.com/NeoReef/game-backend/internal/app/idalloc"
	decorationsvc "github.com/NeoReef/game-backend/internal/app/services/decorations"
	fishsvc "github.com/NeoReef/game-backend/internal/app/services/fishes"
	playersvc "github.com/NeoReef/game-backend/internal/app/services/players"
	reconsvc "github.com/NeoReef/game-backend/internal/app/services/recon"
	tanksvc "github.com/NeoReef/game-backend/internal/app/services/tanks"
	"github.com/NeoReef/game-backend/internal/app/storage"
	"github.com/NeoReef/game-backend/internal/app/storage/memory"
	"github.com/NeoReef/game-backend/internal/app/system"
	"github.com/NeoReef/game-backend/internal/app/xp"
	"github.com/NeoReef/game-backend/internal/chain"
	"github.com/NeoReef/game-backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Players        storage.PlayerStore
	Fish           storage.FishStore
	Tanks          storage.TankStore
	Decorations    storage.DecorationStore
	Reconciliation storage.ReconciliationStore
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Players     *playersvc.Service
	Fish        *fishsvc.Service
	Tanks       *tanksvc.Service
	Decorations *decorationsvc.Service

	FishIDs *idalloc.Allocator
	TankIDs *idalloc.Allocator
}

// New builds a fully initialised application over the given stores and
// ledger. A nil ledger gets the in-process simulator, with its token ids
// drawn from the store-backed allocators.
func New(stores Stores, ledger chain.Ledger, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Players == nil {
		stores.Players = mem
	}
	if stores.Fish == nil {
		stores.Fish = mem
	}
	if stores.Tanks == nil {
		stores.Tanks = mem
	}
	if stores.Decorations == nil {
		stores.Decorations = mem
	}
	if stores.Reconciliation == nil {
		stores.Reconciliation = mem
	}

	fishIDs := idalloc.New("fish", stores.Fish.MaxFishID, log)
	tankIDs := idalloc.New("tank", stores.Tanks.MaxTankID, log)

	if ledger == nil {
		log.Warn("no ledger configured; using in-process simulator")
		ledger = chain.NewSimulator(fishIDs, tankIDs)
	}

	reconWriter := reconsvc.NewWriter(stores.Reconciliation, log)
	engine := xp.NewEngine(stores.Tanks, stores.Decorations)
	family := genealogy.NewResolver(stores.Fish)

	tankService := tanksvc.New(stores.Tanks, stores.Fish, ledger, log)
	playerService := playersvc.New(stores.Players, stores.Fish, stores.Tanks, ledger, reconWriter, log)
	fishService := fishsvc.New(stores.Fish, stores.Players, ledger, engine, family, tankService, reconWriter, log)
	decorationService := decorationsvc.New(stores.Decorations, ledger, reconWriter, log)

	manager := system.NewManager()
	confirmer := reconsvc.NewConfirmer(stores.Reconciliation, nil, log)
	if err := manager.Register(confirmer); err != nil {
		return nil, fmt.Errorf("register %s: %w", confirmer.Name(), err)
	}

	return &Application{
		manager:     manager,
		log:         log,
		Players:     playerService,
		Fish:        fishService,
		Tanks:       tankService,
		Decorations: decorationService,
		FishIDs:     fishIDs,
		TankIDs:     tankIDs,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered background services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all background services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
