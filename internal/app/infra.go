package app

import (
	"context"

	"github.com/WindriderQc/nodeTools/internal/config"
	"github.com/WindriderQc/nodeTools/internal/logger"
	"github.com/WindriderQc/nodeTools/internal/mongo"
	"github.com/WindriderQc/nodeTools/internal/session"
)

type Infra struct {
	Mongo  *mongo.Client
	Params session.Params
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	params, err := session.NewParams(
		cfg.SessionSecret,
		cfg.MongoURL,
		cfg.Production(),
	)
	if err != nil {
		return nil, err
	}

	client, err := mongo.New(params.StoreURL)
	if err != nil {
		return nil, err
	}

	logger.Info("shared store ready", map[string]any{
		"database": params.Database,
	})

	return &Infra{
		Mongo:  client,
		Params: params,
	}, nil
}
