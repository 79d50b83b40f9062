package server

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/skyglow/internal/config"
	"github.com/woozymasta/skyglow/internal/render"
	"github.com/woozymasta/skyglow/internal/service"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Service *service.Service
	HTTP    config.HTTP

	// DefaultEncoder serves tile requests without an extension.
	DefaultEncoder render.Encoder
	encoders       map[string]render.Encoder
}

// NewServerContext prepares the handlers. format is the tile format served
// when the request path carries no extension.
func NewServerContext(svc *service.Service, httpCfg config.HTTP, format string) (*ServerContext, error) {
	def, err := render.EncoderFor(format)
	if err != nil {
		return nil, err
	}

	encoders := make(map[string]render.Encoder)
	for _, f := range []string{"png", "webp"} {
		enc, err := render.EncoderFor(f)
		if err != nil {
			return nil, err
		}
		encoders[enc.Ext()] = enc
	}

	log.Debug().
		Str("default_format", def.Ext()).
		Dur("tile_max_age", httpCfg.TileMaxAge).
		Dur("skyquality_max_age", httpCfg.SkyQualityMaxAge).
		Dur("darkspots_max_age", httpCfg.DarkSpotsMaxAge).
		Msg("Server context initialized")

	return &ServerContext{
		Service:        svc,
		HTTP:           httpCfg,
		DefaultEncoder: def,
		encoders:       encoders,
	}, nil
}

func maxAge(d time.Duration) string {
	return "public, max-age=" + itoa(int64(d/time.Second))
}
