package nakama

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cardczar/internal/app"
	"cardczar/internal/config"
	"cardczar/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

const (
	defaultConfigPath   = "data/game_config.json"
	defaultCardPackPath = "data/card_pack.json"
	rejoinIssuer        = "cardczar"
)

// Gateway carries the shared dependencies every RPC and match handler needs.
type Gateway struct {
	cfg      *config.GameConfig
	pool     *domain.Pool
	registry *app.Registry
	rejoin   *app.RejoinService
}

// InitModule wires configuration, the card pool, RPCs, and the match handler
// into the Nakama runtime. A missing or invalid card pack is fatal: a server
// that cannot deal cards has nothing to offer.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)

	configPath := env["cardczar_config_path"]
	if configPath == "" {
		configPath = defaultConfigPath
	}
	if err := config.LoadGameConfig(configPath); err != nil {
		logger.Warn("InitModule: could not load game config, using defaults: %v", err)
	}
	cfg := config.GetGameConfig()

	packPath := env["cardczar_card_pack_path"]
	if packPath == "" {
		packPath = cfg.CardPackPath
	}
	if packPath == "" {
		packPath = defaultCardPackPath
	}
	pool, err := domain.LoadPool(packPath)
	if err != nil {
		return fmt.Errorf("failed to load card pack %s: %w", packPath, err)
	}
	if pool.PromptCount() < cfg.MinPromptCards || pool.ResponseCount() < cfg.MinResponseCards {
		return fmt.Errorf("card pack %s too small: %d prompts / %d responses, need %d / %d: %w",
			packPath, pool.PromptCount(), pool.ResponseCount(),
			cfg.MinPromptCards, cfg.MinResponseCards, domain.ErrPoolTooSmall)
	}

	secret := env["cardczar_rejoin_secret"]
	if secret == "" {
		secret = "dev-rejoin-secret"
		logger.Warn("InitModule: cardczar_rejoin_secret missing from env, using dev default.")
	}

	gw := &Gateway{
		cfg:      cfg,
		pool:     pool,
		registry: app.NewRegistry(),
		rejoin:   app.NewRejoinService(secret, rejoinIssuer, time.Hour),
	}

	if err := gw.RegisterRPCs(initializer); err != nil {
		return err
	}
	if err := initializer.RegisterMatch(MatchNameCardCzar, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return &matchHandler{gw: gw}, nil
	}); err != nil {
		return err
	}

	logger.Info("CardCzar Go module loaded: %d prompts, %d responses.", pool.PromptCount(), pool.ResponseCount())
	return nil
}
