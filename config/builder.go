package config

import (
	"log/slog"
	"sort"

	"github.com/spanow/ummati"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The logger, when non-nil, is passed through with [ummati.WithLogger].
// Collections are built with [ummati.NewCollection] so the SDK applies its
// own defaults for anything left unset.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]ummati.Option, error) {
	events, err := buildCollection("events", cfg.Collections.Events)
	if err != nil {
		return nil, err
	}
	ngos, err := buildCollection("ngos", cfg.Collections.NGOs)
	if err != nil {
		return nil, err
	}

	opts := []ummati.Option{
		ummati.WithBaseURL(cfg.API.BaseURL),
		ummati.WithPort(cfg.Port),
		ummati.WithStatePath(cfg.StateFile),
		ummati.WithEvents(events),
		ummati.WithNGOs(ngos),
	}

	if cfg.API.Timeout != 0 {
		opts = append(opts, ummati.WithRequestTimeout(cfg.API.Timeout.Duration()))
	}
	if logger != nil {
		opts = append(opts, ummati.WithLogger(logger))
	}

	return opts, nil
}

// buildCollection converts a single CollectionConfig to an SDK Collection.
func buildCollection(name string, cc CollectionConfig) (ummati.Collection, error) {
	var opts []ummati.CollectionOption

	if cc.PageSize != 0 {
		opts = append(opts, ummati.WithPageSize(cc.PageSize))
	}

	if cc.Debounce != 0 {
		opts = append(opts, ummati.WithDebounce(cc.Debounce.Duration()))
	}

	if len(cc.Headers) > 0 {
		opts = append(opts, ummati.WithHeaders(mapToKeyValuePairs(cc.Headers)...))
	}

	if cc.OnFailure == "clear" {
		opts = append(opts, ummati.WithClearOnFailure())
	}

	return ummati.NewCollection(name, cc.Path, opts...)
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
