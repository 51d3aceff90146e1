package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	configadapter "github.com/bnema/egnyte-reseller-cli/internal/adapters/config"
	portaladapter "github.com/bnema/egnyte-reseller-cli/internal/adapters/portal"
	renderadapter "github.com/bnema/egnyte-reseller-cli/internal/adapters/render/customers"
	chainstore "github.com/bnema/egnyte-reseller-cli/internal/adapters/secrets/chain"
	"github.com/bnema/egnyte-reseller-cli/internal/application"
	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/bnema/egnyte-reseller-cli/internal/ports"
	"github.com/spf13/viper"
)

const passwordCredentialKey = "egnyte/portal/password"

type app struct {
	settings          configadapter.Settings
	credentials       ports.CredentialStore
	customersRenderer func([]domain.Customer) (string, error)
	plansRenderer     func([]domain.Plan) (string, error)
}

func wireApp() (*app, error) {
	settings, err := configadapter.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	configDir, err := configadapter.Dir()
	if err != nil {
		return nil, err
	}

	credentials, err := chainstore.NewPassFirstWithFileFallback(filepath.Join(configDir, "secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire credential store chain: %w", err)
	}

	return &app{
		settings:          settings,
		credentials:       credentials,
		customersRenderer: renderadapter.Render,
		plansRenderer:     renderadapter.RenderPlans,
	}, nil
}

// portalClient builds a client on demand so commands that never touch the
// portal (version, config init, auth) work without stored credentials.
func (a *app) portalClient(ctx context.Context) (*portaladapter.Client, error) {
	password := os.Getenv("EGR_PASSWORD")
	if password == "" {
		stored, err := a.credentials.Get(ctx, passwordCredentialKey)
		if err != nil {
			return nil, fmt.Errorf("no portal password available, run 'egr auth set' first: %w", err)
		}
		password = stored
	}

	return portaladapter.NewClient(portaladapter.Config{
		BaseURL:            a.settings.BaseURL,
		Username:           a.settings.Username,
		Password:           password,
		TimeoutMs:          a.settings.TimeoutMs,
		ForceLicenseChange: a.settings.ForceLicenseChange,
		BackoffDelay:       a.settings.BackoffDelay,
		ProtectPlanID:      a.settings.ProtectPlanID,
	})
}

func (a *app) licenseService(ctx context.Context) (*application.LicenseService, *portaladapter.Client, error) {
	client, err := a.portalClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	return application.NewLicenseService(client, client, client, a.settings.ForceLicenseChange), client, nil
}
