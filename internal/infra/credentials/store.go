// Package credentials stores synthesis-backend API keys in the database so
// deployments can rotate them without a restart.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mediagen/internal/infra"
	"mediagen/internal/sqlinline"
)

const (
	ProviderVideoSynthesis = "video_synthesis"
	ProviderImageSynthesis = "image_synthesis"
)

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) VideoAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderVideoSynthesis)
}

func (s *Store) ImageAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderImageSynthesis)
}

// Token returns the stored key for a provider, or "" when none is stored.
func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetVideoAPIKey(ctx context.Context, key string) error {
	return s.set(ctx, ProviderVideoSynthesis, key)
}

func (s *Store) SetImageAPIKey(ctx context.Context, key string) error {
	return s.set(ctx, ProviderImageSynthesis, key)
}

func (s *Store) set(ctx context.Context, provider, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	return s.upsert(ctx, provider, key, nil)
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
