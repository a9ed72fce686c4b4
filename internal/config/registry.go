package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillrecordings/support-sub010/internal/common"
	"github.com/skillrecordings/support-sub010/internal/model"
	"github.com/skillrecordings/support-sub010/internal/service"
)

// AppRegistry resolves app configuration from the config file first and then
// from a store.
type AppRegistry struct {
	store  service.AppConfigSource
	static map[string]model.AppConfig
}

// NewAppRegistry creates a registry over static apps. store may be nil.
func NewAppRegistry(static []model.AppConfig, store service.AppConfigSource) *AppRegistry {
	r := &AppRegistry{
		static: make(map[string]model.AppConfig, len(static)),
		store:  store,
	}
	for _, app := range static {
		r.static[app.AppID] = app
	}
	return r
}

// GetAppConfig implements service.AppConfigSource.
func (r *AppRegistry) GetAppConfig(ctx context.Context, appID string) (model.AppConfig, error) {
	if app, ok := r.static[appID]; ok {
		return app, nil
	}
	if r.store == nil {
		return model.AppConfig{}, fmt.Errorf("app %q: %w", appID, common.ErrNotFound)
	}

	app, err := r.store.GetAppConfig(ctx, appID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return model.AppConfig{}, fmt.Errorf("app %q: %w", appID, common.ErrNotFound)
		}
		return model.AppConfig{}, err
	}
	return app, nil
}
