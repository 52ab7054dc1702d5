package config

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/walteh/qgzedit/pkg/rule"
	"gitlab.com/tozd/go/errors"
)

const (
	legacyModulesKey    = "modulos"
	legacyReplaceModule = "reemplazo_texto"
)

// legacyConfig is the config.json layout written by the legacy editor and
// its web front-end.
type legacyConfig struct {
	Modules   map[string]legacyModule `json:"modulos"`
	Postfix   *string                 `json:"postfijo"`
	InputDir  *string                 `json:"carpeta_entrada"`
	OutputDir *string                 `json:"carpeta_salida"`
}

type legacyModule struct {
	Active      bool         `json:"activo"`
	Description string       `json:"descripcion"`
	Rules       []legacyRule `json:"reglas"`
}

type legacyRule struct {
	Search  *string `json:"buscar"`
	Replace *string `json:"reemplazar_por"`
	Type    string  `json:"tipo"`
}

func parseLegacy(ctx context.Context, data []byte) (*Config, error) {
	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, errors.Errorf("parsing legacy JSON: %w", err)
	}

	for _, field := range []struct {
		name  string
		value *string
	}{
		{"postfijo", legacy.Postfix},
		{"carpeta_entrada", legacy.InputDir},
		{"carpeta_salida", legacy.OutputDir},
	} {
		if field.value == nil {
			return nil, rule.NewConfigurationError(0, field.name, "", "missing field")
		}
	}

	var active []string
	for name, mod := range legacy.Modules {
		if mod.Active {
			active = append(active, name)
		}
	}
	if len(active) == 0 {
		return nil, rule.NewConfigurationError(0, legacyModulesKey, "", "no active modules, set \"activo\": true on at least one")
	}
	sort.Strings(active)
	zerolog.Ctx(ctx).Debug().Strs("modules", active).Msg("legacy config active modules")

	cfg := &Config{
		Postfix:   *legacy.Postfix,
		InputDir:  *legacy.InputDir,
		OutputDir: *legacy.OutputDir,
	}

	mod, ok := legacy.Modules[legacyReplaceModule]
	if !ok || !mod.Active {
		return cfg, nil
	}
	if len(mod.Rules) == 0 {
		return nil, rule.NewConfigurationError(0, legacyReplaceModule, "", "module has no rules, add at least one with \"buscar\" and \"reemplazar_por\"")
	}

	for i, r := range mod.Rules {
		if r.Search == nil || r.Replace == nil {
			return nil, rule.NewConfigurationError(i+1, "", "", fmt.Sprintf("missing %q or %q", "buscar", "reemplazar_por"))
		}
		cfg.Rules = append(cfg.Rules, rule.Rule{
			Search:  *r.Search,
			Replace: *r.Replace,
			Type:    rule.ValueType(r.Type),
		})
	}

	return cfg, nil
}
