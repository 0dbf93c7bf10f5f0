package settings

import (
	"context"
	"fmt"
	"strings"

	"timetrack-backend/internal/store"
)

// DefaultWebhookSecret is the signing key used when no secret has been
// configured. It is a weak, publicly known default: operators must set
// their own secret before going to production.
const DefaultWebhookSecret = "one_webhook_secret_key_2026"

// Setting keys as stored in the _settings table.
const (
	KeyEnabled         = "webhook_enabled"
	KeyWebhookURL      = "webhook_url"
	KeyWebhookSecret   = "webhook_secret"
	KeyFilterCondition = "webhook_filter_condition"
)

// Settings is the admin-editable webhook configuration. Enabled uses the
// "1"/"0" string convention of the admin UI.
type Settings struct {
	Enabled         string `json:"enabled"`
	WebhookURL      string `json:"webhook_url"`
	WebhookSecret   string `json:"webhook_secret"`
	FilterCondition string `json:"filter_condition"`
}

// IsEnabled reports whether webhook delivery is switched on.
func (s Settings) IsEnabled() bool {
	return s.Enabled == "1"
}

// URL returns the webhook URL trimmed of surrounding whitespace.
func (s Settings) URL() string {
	return strings.TrimSpace(s.WebhookURL)
}

// ResolveSecret returns the configured secret, or DefaultWebhookSecret
// when the configured value is blank after trimming.
func (s Settings) ResolveSecret() string {
	secret := strings.TrimSpace(s.WebhookSecret)
	if secret == "" {
		return DefaultWebhookSecret
	}
	return secret
}

// Provider yields the current settings. Implementations must read
// through to the source on every call so admin changes take effect for
// the next event; no caching.
type Provider interface {
	Load(ctx context.Context) (Settings, error)
}

// DBStore reads and writes settings rows in the _settings table.
type DBStore struct {
	store *store.Store
}

func NewDBStore(s *store.Store) *DBStore {
	return &DBStore{store: s}
}

// Load reads the settings rows fresh from the database.
func (d *DBStore) Load(ctx context.Context) (Settings, error) {
	rows, err := store.QueryRows(ctx, d.store.DB,
		`SELECT key, value FROM _settings`)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	var s Settings
	for _, row := range rows {
		key, _ := row["key"].(string)
		value, _ := row["value"].(string)
		switch key {
		case KeyEnabled:
			s.Enabled = value
		case KeyWebhookURL:
			s.WebhookURL = value
		case KeyWebhookSecret:
			s.WebhookSecret = value
		case KeyFilterCondition:
			s.FilterCondition = value
		}
	}
	return s, nil
}

// Save upserts the settings rows.
func (d *DBStore) Save(ctx context.Context, s Settings) error {
	values := map[string]string{
		KeyEnabled:         s.Enabled,
		KeyWebhookURL:      s.WebhookURL,
		KeyWebhookSecret:   s.WebhookSecret,
		KeyFilterCondition: s.FilterCondition,
	}
	for key, value := range values {
		if err := d.upsert(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDefaults seeds missing settings rows with their defaults.
// Existing rows are left alone.
func (d *DBStore) EnsureDefaults(ctx context.Context) error {
	defaults := map[string]string{
		KeyEnabled:         "1",
		KeyWebhookURL:      "",
		KeyWebhookSecret:   DefaultWebhookSecret,
		KeyFilterCondition: "",
	}
	for key, value := range defaults {
		pb := d.store.Dialect.NewParamBuilder()
		_, err := store.Exec(ctx, d.store.DB,
			fmt.Sprintf(`INSERT INTO _settings (key, value) VALUES (%s, %s) ON CONFLICT (key) DO NOTHING`,
				pb.Add(key), pb.Add(value)),
			pb.Params()...)
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}
	return nil
}

func (d *DBStore) upsert(ctx context.Context, key, value string) error {
	pb := d.store.Dialect.NewParamBuilder()
	_, err := store.Exec(ctx, d.store.DB,
		fmt.Sprintf(`INSERT INTO _settings (key, value, updated_at) VALUES (%s, %s, %s)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = %s`,
			pb.Add(key), pb.Add(value), d.store.Dialect.NowExpr(), d.store.Dialect.NowExpr()),
		pb.Params()...)
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// Static is a fixed-value Provider for tests.
type Static struct {
	S Settings
}

func (s Static) Load(ctx context.Context) (Settings, error) {
	return s.S, nil
}
