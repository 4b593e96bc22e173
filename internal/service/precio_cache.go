package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"consigna/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const precioCacheTTL = 4 * time.Hour

func precioCacheKey(nro string) string {
	return "precio:" + strings.ToUpper(strings.TrimSpace(nro))
}

// invalidarPrecio drops the cached public price. Cache failures never fail
// the calling operation.
func invalidarPrecio(ctx context.Context, rdb *redis.Client, nro string) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, precioCacheKey(nro)).Err(); err != nil {
		log.Warn().Err(err).Str("nro_articulo", nro).Msg("no se pudo invalidar el precio cacheado")
	}
}

func leerPrecioCacheado(ctx context.Context, rdb *redis.Client, nro string) (*dto.ConsultaPrecioResponse, bool) {
	if rdb == nil {
		return nil, false
	}
	raw, err := rdb.Get(ctx, precioCacheKey(nro)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("nro_articulo", nro).Msg("lectura de cache de precios fallida")
		}
		return nil, false
	}
	var resp dto.ConsultaPrecioResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func guardarPrecioCacheado(ctx context.Context, rdb *redis.Client, resp *dto.ConsultaPrecioResponse) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := rdb.Set(ctx, precioCacheKey(resp.NroArticulo), raw, precioCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Str("nro_articulo", resp.NroArticulo).Msg("escritura de cache de precios fallida")
	}
}

// vaciarCachePrecios drops every cached price; used after a bulk restore.
func vaciarCachePrecios(ctx context.Context, rdb *redis.Client) {
	if rdb == nil {
		return
	}
	iter := rdb.Scan(ctx, 0, "precio:*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Warn().Err(err).Msg("no se pudo recorrer la cache de precios")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Int("claves", len(keys)).Msg("no se pudo vaciar la cache de precios")
	}
}
